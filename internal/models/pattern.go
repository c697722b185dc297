package models

import (
	"math"
	"strings"

	"fjacquet/bankflow/internal/taxonomy"
)

// CategoryPattern is a learned keyword-to-category association. Pattern is a
// lowercase substring and the unique key.
type CategoryPattern struct {
	Pattern      string                `json:"pattern" yaml:"pattern"`
	MainCategory taxonomy.MainCategory `json:"mainCategory" yaml:"main_category"`
	SubCategory  taxonomy.SubCategory  `json:"subCategory" yaml:"sub_category"`
	Confidence   float64               `json:"confidence" yaml:"confidence"`
	UsageCount   int                   `json:"usageCount" yaml:"usage_count"`
}

// NormalizePattern lowercases and trims a pattern key.
func NormalizePattern(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

// Category returns the pattern's pair.
func (p CategoryPattern) Category() taxonomy.Pair {
	return taxonomy.Pair{Main: p.MainCategory, Sub: p.SubCategory}
}

// MatchesDescription reports whether the pattern occurs in description,
// ignoring case.
func (p CategoryPattern) MatchesDescription(description string) bool {
	if p.Pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(description), p.Pattern)
}

// ClampConfidence bounds c to [MinConfidence, MaxConfidence] and rounds it to
// two decimals so repeated ±0.1 steps do not drift.
func ClampConfidence(c float64) float64 {
	c = math.Round(c*100) / 100
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}
