package engine

import "strings"

// Rule is one product-type heuristic: when any trigger term appears in the
// query, a candidate document must contain at least one required term and
// none of the excluded terms. Rules are data; adding a product type is a new
// table entry, not new fusion logic.
type Rule struct {
	Name     string
	Triggers []string
	Required []string
	Excluded []string
}

// DefaultRules returns the built-in rule table. Only the headphones rule
// ships by default: a headphones query should not surface studio gear that
// merely co-occurs with audio vocabulary.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "headphones",
			Triggers: []string{"headphone", "headphones", "earbud", "earbuds", "earphone", "earphones", "headset"},
			Required: []string{"headphone", "earbud", "earphone", "headset"},
			Excluded: []string{"interface", "mixer", "microphone", "amplifier"},
		},
	}
}

// Triggered reports whether the rule applies to the lowercased query.
func (r Rule) Triggered(queryLower string) bool {
	for _, t := range r.Triggers {
		if strings.Contains(queryLower, t) {
			return true
		}
	}
	return false
}

// Allows reports whether the lowercased document text passes the rule.
func (r Rule) Allows(docTextLower string) bool {
	for _, ex := range r.Excluded {
		if strings.Contains(docTextLower, ex) {
			return false
		}
	}
	for _, req := range r.Required {
		if strings.Contains(docTextLower, req) {
			return true
		}
	}
	return len(r.Required) == 0
}

// allowedByRules applies every triggered rule to the document text.
func allowedByRules(rules []Rule, queryLower, docTextLower string) bool {
	for _, r := range rules {
		if r.Triggered(queryLower) && !r.Allows(docTextLower) {
			return false
		}
	}
	return true
}
