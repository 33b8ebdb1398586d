package classifier

import (
	"context"
	"regexp"
	"sort"
)

// Rule maps a compiled pattern to the tag it evidences.
type Rule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// DefaultRules returns the reference tagging rules for adviser brochures.
func DefaultRules() []Rule {
	return []Rule{
		{Tag: "crypto", Pattern: regexp.MustCompile(`(?i)\b(crypto(currency|currencies)?|digital asset|bitcoin|ethereum)\b`)},
		{Tag: "private-fund", Pattern: regexp.MustCompile(`(?i)\bprivate (fund|equity|placement)s?\b`)},
		{Tag: "wrap-fee", Pattern: regexp.MustCompile(`(?i)\bwrap[- ]fee\b`)},
		{Tag: "performance-fee", Pattern: regexp.MustCompile(`(?i)\bperformance[- ](fee|based compensation)\b`)},
		{Tag: "separately-managed", Pattern: regexp.MustCompile(`(?i)\bseparately managed accounts?\b`)},
		{Tag: "financial-planning", Pattern: regexp.MustCompile(`(?i)\bfinancial planning\b`)},
	}
}

// Keyword is the reference classifier: a fixed rule set of regular
// expressions, each contributing one tag when it matches.
type Keyword struct {
	rules []Rule
}

// NewKeyword creates a keyword classifier with the given rules.
func NewKeyword(rules []Rule) *Keyword {
	return &Keyword{rules: rules}
}

// Classify returns the tags whose patterns match the text, sorted for
// stable output. Never fails.
func (k *Keyword) Classify(_ context.Context, text string) ([]string, error) {
	var tags []string
	for _, rule := range k.rules {
		if rule.Pattern.MatchString(text) {
			tags = append(tags, rule.Tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}
