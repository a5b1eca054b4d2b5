package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EnvMaxInputSize overrides DefaultMaxInputSize, in bytes.
const EnvMaxInputSize = "ONBOARD_MAX_INPUT_SIZE"

// DefaultMaxInputSize bounds one reply. Chat answers are short; pasted message
// templates are the longest legitimate input.
var DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput prepares a user reply for classification. Oversized replies are
// rejected, not truncated, since a cut reply could still match a keyword.
//
// Newlines and tabs are kept because templates are multi-line. Other control
// characters and invisible format runes (zero-width spaces, BOMs pasted from chat
// clients) are dropped, and no-break spaces become plain spaces so keyword matching
// sees what the user sees.
func SanitizeInput(input string) (string, error) {
	if limit := maxInputSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return strings.Map(cleanRune, input), nil
}

func cleanRune(r rune) rune {
	switch {
	case r == '\n', r == '\t', r == '\r':
		return r
	case r == '\u00a0', r == '\u202f':
		return ' '
	case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
		return -1
	}
	return r
}

func maxInputSize() int {
	if size, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && size > 0 {
		return size
	}
	return DefaultMaxInputSize
}
