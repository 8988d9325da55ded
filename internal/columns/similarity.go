package columns

import "github.com/texttheater/golang-levenshtein/levenshtein"

// Similarity scores two strings in [0, 1]; 1 means identical.
type Similarity interface {
	Ratio(a, b string) float64
}

// SimilarityFunc adapts a plain function to Similarity.
type SimilarityFunc func(a, b string) float64

func (f SimilarityFunc) Ratio(a, b string) float64 { return f(a, b) }

// LevenshteinRatio is (len(a)+len(b)-distance)/(len(a)+len(b)) with
// substitutions costing 2, which equals 2*LCS/(len(a)+len(b)).
type LevenshteinRatio struct{}

func (LevenshteinRatio) Ratio(a, b string) float64 {
	return levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}
