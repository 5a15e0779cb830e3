package codegen

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var identifier = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

var reservedKeys = []string{"if", "for", "while", "class", "const", "let", "var", "function"}

// PropertyKey returns key as it may appear in an object literal: bare when it is a plain
// identifier, double-quoted and escaped otherwise.
func PropertyKey(key string) string {
	if identifier.MatchString(key) && !slices.Contains(reservedKeys, key) {
		return key
	}

	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range key {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
