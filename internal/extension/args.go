package extension

import (
	"regexp"
	"strconv"
)

var argPattern = regexp.MustCompile(`\$(\d+)\$`)

// RenderArgs replaces positional placeholders ($0$, $1$, ...) in text with
// the matching entry of args. Replacement is a single left-to-right pass, so
// argument text is never expanded again. Placeholders with no matching
// argument are left as written.
func RenderArgs(text string, args []string) string {
	if len(args) == 0 {
		return text
	}
	return argPattern.ReplaceAllStringFunc(text, func(token string) string {
		pos, err := strconv.Atoi(token[1 : len(token)-1])
		if err != nil || pos >= len(args) {
			return token
		}
		return args[pos]
	})
}
