package internal

import "strings"

// htmlReplacer escapes the characters htmlspecialchars escapes by default:
// ampersand, angle brackets and double quote. Single quotes pass through.
var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeHTML escapes s for inclusion in HTML text or a double-quoted attribute
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}
