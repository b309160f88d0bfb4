// Package quality scores files on structural integrity. Generic content
// checks apply everywhere; systems with a registered checker additionally
// get header and container validation. Scores map to levels from PERFECT
// down to CORRUPT.
package quality
