package util

import "strings"

// MaskCode obscures a gift card code for logging purposes, keeping the
// prefix and the last few characters so log lines stay correlatable
// without leaking a spendable code.
func MaskCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) <= 7 {
		return code
	}
	return code[:3] + "..." + code[len(code)-4:]
}
