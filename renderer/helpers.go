package renderer

import (
	"bytes"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// cell escapes text for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// change renders a before/after pair.
func change(old, new decimal.Decimal) string {
	return old.String() + " → " + new.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
