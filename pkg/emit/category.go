package emit

import "strings"

var (
	// Categories are the fixed folders under the rules directory.
	Categories = []string{"assistants", "languages", "stacks", "tasks", "technologies", "tools"}

	categoryAliases = map[string]string{
		"assistants":   "assistants",
		"assistant":    "assistants",
		"languages":    "languages",
		"language":     "languages",
		"stacks":       "stacks",
		"stack":        "stacks",
		"tasks":        "tasks",
		"task":         "tasks",
		"technologies": "technologies",
		"technology":   "technologies",
		"tools":        "tools",
		"tool":         "tools",
	}
)

// CategoryOf returns the category folder for a rule's tags. The first tag
// naming a category wins. Rules without one are uncategorized and get "".
func CategoryOf(tags []string) string {
	for _, tag := range tags {
		if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
			return c
		}
	}

	return ""
}
