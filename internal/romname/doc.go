// Package romname normalizes ROM file names for comparison and extracts the
// bracketed region and version tokens that release naming conventions encode.
//
// Normalization strips extensions and tags, folds diacritics, and collapses
// punctuation so "Title (USA) (v1.1).iso" and "Title (Europe) (v1.0).iso"
// reduce to the same base string. Similarity provides a normalized
// edit-distance ratio used by the fuzzy duplicate lens.
package romname
