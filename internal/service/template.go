package service

import (
	"strings"
)

// RenderTemplate substitutes {placeholder} slots. Empty values render as
// <unknown> so a template hole is visible rather than silently blank.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}
