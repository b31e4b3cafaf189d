package mcp

const (
	name         = "rulehub"
	instructions = `MCP Server 'rulehub' curates coding rules for AI assistants and packages them for a project.

When to use these tools:
- Finding rules that apply to a technology stack (frameworks, languages, tools, IDE)
- Reading the full text of a rule before recommending it
- Producing a downloadable package (bash setup script, zip archive or JSON config) for a project

REQUIRED workflow:
1. Use 'match_rules' with the project's stacks, languages and tools to preview which rules apply
2. STOP and READ the matched rules and their levels
3. Use 'get_rule' with an EXACT id from 'match_rules' or 'list_rules' when you need the rule text
4. Use 'generate_package' with the same inputs plus an outputFormat to create the package

Use 'list_rules' with a query to search the catalog by id, title or tag.
`

	// contentLimit caps rule text returned by get_rule.
	contentLimit = 8000
)

// truncateString truncates a string to maxLen characters with ellipsis if needed.
func truncateString(str string, maxLen int) string {
	if str == "" {
		return ""
	}
	if len(str) > maxLen {
		return str[:maxLen] + "\n[OUTPUT TRUNCATED]"
	}

	return str
}
