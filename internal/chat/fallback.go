package chat

import (
	"fmt"
	"strings"
)

// fallbackRule maps substring patterns to a canned reply. Rules are checked
// in order; the first rule with any matching pattern wins.
type fallbackRule struct {
	patterns []string
	reply    string
}

// Responder produces deterministic local replies when the completion
// request fails outright. Respond is synchronous and never fails.
type Responder struct {
	rules []fallbackRule
}

func NewResponder() *Responder {
	return &Responder{rules: []fallbackRule{
		{
			patterns: []string{"background"},
			reply:    "This is a simulated response about my background because the API request failed.",
		},
		{
			patterns: []string{"bernoulli", "equation"},
			reply:    "Bernoulli's principle states that as the speed of a fluid increases, its pressure decreases. This explains how airplanes generate lift and why shower curtains move inward when water flows.",
		},
		{
			patterns: []string{"justin bieber"},
			reply:    "Justin Bieber is a Canadian singer who gained fame at a young age through YouTube. He has released many hit songs like 'Baby', 'Sorry', and 'Love Yourself'.",
		},
		{
			patterns: []string{"hi", "hello", "hey"},
			reply:    "Hello! How can I assist you today?",
		},
	}}
}

// Respond returns the reply of the first matching rule, or a generic reply
// quoting the query.
func (r *Responder) Respond(query string) string {
	lowered := strings.ToLower(query)
	for _, rule := range r.rules {
		for _, pattern := range rule.patterns {
			if strings.Contains(lowered, pattern) {
				return rule.reply
			}
		}
	}
	return fmt.Sprintf("This is a simulated response because the API request failed. You asked about: %q.", query)
}
