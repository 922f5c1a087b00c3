package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// keys, string values, then literals and numbers
var jsonTokenRegex = regexp.MustCompile(`("(\\u[a-zA-Z0-9]{4}|\\[^u]|[^\\"])*"(\s*:)?|\b(true|false|null)\b|-?\d+(?:\.\d*)?(?:[eE][+\-]?\d+)?)`)

// HighlightJSON takes a JSON string (minified or indented) and applies ANSI colors.
func HighlightJSON(jsonStr string) string {
	if !Enabled() {
		return jsonStr
	}

	return jsonTokenRegex.ReplaceAllStringFunc(jsonStr, func(token string) string {
		switch {
		case strings.HasSuffix(token, ":"):
			return fmt.Sprintf("%s%s%s:", Blue, token[:len(token)-1], Reset)
		case strings.HasPrefix(token, "\""):
			return fmt.Sprintf("%s%s%s", Green, token, Reset)
		case token == "true" || token == "false":
			return fmt.Sprintf("%s%s%s", Yellow, token, Reset)
		case token == "null":
			return fmt.Sprintf("%s%s%s", Dim, token, Reset)
		default:
			return fmt.Sprintf("%s%s%s", Purple, token, Reset)
		}
	})
}

// PrettyFormat marshals v to indented JSON and colorizes it.
func PrettyFormat(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return HighlightJSON(string(b))
}

// PrettyPrint writes the PrettyFormatted JSON to w with a newline.
func PrettyPrint(w io.Writer, v interface{}) {
	fmt.Fprintln(w, PrettyFormat(v))
}
