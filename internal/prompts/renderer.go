package prompts

import (
	"sort"
	"strings"
)

const messageSeparator = "\n\n"

// Placeholder returns the template token for an argument name
func Placeholder(name string) string {
	return "{{" + name + "}}"
}

// Render produces the text of a prompt for the given arguments.
//
// Only user messages are rendered. Every {{key}} token for a supplied key is
// replaced by its value in a single pass, so text coming from a value is never
// substituted again. Tokens without a supplied value are left as they are.
func Render(def PromptDefinition, arguments map[string]string) string {
	replacer := newReplacer(arguments)

	var sb strings.Builder
	for _, msg := range def.Messages {
		if msg.Role != RoleUser || msg.Content == nil {
			continue
		}
		sb.WriteString(replacer.Replace(msg.Content.Text))
		sb.WriteString(messageSeparator)
	}

	return strings.TrimSpace(sb.String())
}

func newReplacer(arguments map[string]string) *strings.Replacer {
	// strings.Replacer breaks ties between patterns by argument order
	keys := make([]string, 0, len(arguments))
	for k := range arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, Placeholder(k), arguments[k])
	}
	return strings.NewReplacer(pairs...)
}
