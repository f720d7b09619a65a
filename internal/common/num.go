package common

import (
	"strconv"
	"strings"
)

// ParseImporte parses an amount written in the Argentine accounting format
// used across Rendición de Cuentas reports: "." as thousands separator, ","
// as decimal separator, and parentheses for negatives.
//
//	"1.234,56"  => 1234.56
//	"(123,45)"  => -123.45
//
// The second return value is false when the text is empty or not a number.
func ParseImporte(value string) (float64, bool) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, false
	}
	negative := strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")")
	cleaned = strings.Trim(cleaned, "()")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	number, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		return -number, true
	}
	return number, true
}
