// Package classify holds the display heuristics applied to run output at
// render time.
package classify

import "strings"

// Category is the visual bucket of a trace-log entry.
type Category string

const (
	Reasoning    Category = "reasoning"
	Coordination Category = "coordination"
	Action       Category = "action"
)

type stepRule struct {
	keywords []string
	category Category
}

// stepRules are evaluated in order; the first rule with a keyword contained in
// the lower-cased step wins.
var stepRules = []stepRule{
	{keywords: []string{"planner", "analysis", "strategy", "review", "critic"}, category: Reasoning},
	{keywords: []string{"abn", "connect", "propose", "receive", "negotiate"}, category: Coordination},
}

// LogCategory buckets a trace-log step label. Unmatched steps are Action.
func LogCategory(step string) Category {
	lower := strings.ToLower(step)
	for _, rule := range stepRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.category
			}
		}
	}
	return Action
}
