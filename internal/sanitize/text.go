package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all HTML tags and attributes. Used for fields
	// that must stay plain text: names, locations, specializations, tags.
	strictPolicy = bluemonday.StrictPolicy()

	// ugcPolicy allows safe user-generated formatting (<p>, <b>, <i>, <em>,
	// <strong>, <a>, lists, <br>) in event descriptions and athlete bios.
	ugcPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML and trims surrounding whitespace.
func Text(input string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}

// RichText sanitizes user-supplied content, keeping basic formatting while
// removing scripts, event handlers and style attributes.
func RichText(input string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(input))
}

// TextSlice sanitizes every element with the strict policy, dropping entries
// that end up empty.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if clean := Text(input); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
