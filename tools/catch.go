package tools

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInput is returned when a delimited tool input cannot be split
var ErrMalformedInput = errors.New("malformed tool input")

// Delimiter separates the fields of a combined tool input
const Delimiter = "|"

// Catch runs fn and converts any error or panic into prefix followed by the error text.
// Tools report failures to agents as plain text, never as Go errors.
func Catch(prefix string, fn func() (string, error)) (ret string) {
	defer func() {
		if r := recover(); r != nil {
			ret = prefix + fmt.Sprint(r)
		}
	}()
	out, err := fn()
	if err != nil {
		return prefix + err.Error()
	}
	return out
}

// SplitPair splits a "<first>|<second>" tool input on the first delimiter.
// Later delimiters stay in the second field. Both fields must be non-empty after trimming.
func SplitPair(input string) (string, string, error) {
	first, second, found := strings.Cut(input, Delimiter)
	if !found {
		return "", "", fmt.Errorf("%w: expected \"<a>%s<b>\", got %q", ErrMalformedInput, Delimiter, input)
	}
	first = strings.TrimSpace(first)
	second = strings.TrimSpace(second)
	if first == "" || second == "" {
		return "", "", fmt.Errorf("%w: empty field in %q", ErrMalformedInput, input)
	}
	return first, second, nil
}

// CleanPath strips the quoting language models tend to put around path arguments
func CleanPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "'", "")
	p = strings.Trim(p, "\"`")
	return strings.TrimSpace(p)
}
