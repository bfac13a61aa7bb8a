package folio

import (
	"strings"
	"unicode"
)

const bom = '\uFEFF'

// StripBOM removes every leading byte order mark from s.
func StripBOM(s string) string {
	return strings.TrimLeft(s, string(bom))
}

// splitLines splits text on LF or CRLF line endings.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ParseRow splits a single line of comma separated values into fields.
//
// Fields may be wrapped in double quotes, in which case they can contain
// commas and a doubled quote stands for a literal one. Unquoted fields are
// trimmed, quoted fields are kept verbatim. Malformed quoting never fails: the
// line is split on a best effort basis.
func ParseRow(line string) []string {
	var (
		fields   []string
		field    strings.Builder
		quoted   bool // the current field started with a quote
		inQuotes bool
	)
	runes := []rune(line)
	flush := func() {
		v := field.String()
		if !quoted {
			v = strings.TrimSpace(v)
		}
		fields = append(fields, v)
		field.Reset()
		quoted = false
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if inQuotes {
			if c != '"' {
				field.WriteRune(c)
				continue
			}
			if i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = false
			continue
		}

		switch {
		case c == ',':
			flush()
		case c == '"' && !quoted && strings.TrimSpace(field.String()) == "":
			// opening quote, whitespace before it is dropped.
			field.Reset()
			quoted, inQuotes = true, true
		case quoted && unicode.IsSpace(c):
			// whitespace between a closing quote and the next comma.
		default:
			field.WriteRune(c)
		}
	}
	flush()
	return fields
}
