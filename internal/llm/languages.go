package llm

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// NormalizeTargets canonicalizes configured target languages. BCP 47 tags
// ("hi", "en-US") become English display names usable in prompts and as
// stable translation keys; anything unparseable passes through unchanged so
// free-form names like "Hindi" keep working.
func NormalizeTargets(targets []string) []string {
	out := make([]string, 0, len(targets))
	seen := make(map[string]bool)

	for _, target := range targets {
		name := target
		if tag, err := language.Parse(target); err == nil {
			if display := display.English.Languages().Name(tag); display != "" {
				name = display
			}
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
