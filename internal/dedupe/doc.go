// Package dedupe finds duplicate library entries beyond plain hash
// equality: cross-region releases, version revisions, and fuzzy title
// matches, each with a keep recommendation.
package dedupe
