package giftcard

import (
	"crypto/rand"
	"strings"
)

// Card code format: "GC-" followed by a fixed number of characters drawn
// from an alphabet without easily confused glyphs (no 0/O, 1/I).
const (
	CodePrefix   = "GC-"
	codeLength   = 12
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateCode returns a new random card code. Uniqueness is enforced by
// the database; the issuer retries on collision.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return CodePrefix + string(out), nil
}

// NormalizeCode trims whitespace and uppercases a caller-supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCodeFormat reports whether code has the issued shape.
func ValidCodeFormat(code string) bool {
	if !strings.HasPrefix(code, CodePrefix) {
		return false
	}
	body := code[len(CodePrefix):]
	if len(body) != codeLength {
		return false
	}
	for i := 0; i < len(body); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(body[i])) {
			return false
		}
	}
	return true
}
