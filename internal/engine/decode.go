package engine

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decode returns b as text. Valid UTF-8 is used as is; anything else is read
// as ISO-8859-1, which maps every byte and so only fails on decoder faults.
func decode(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// isLineBreak reports whether r ends a line. The set is the one Python's
// str.splitlines uses, so line numbers agree with Python tooling.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// eachLine calls fn for every line of s with its 1-based number. "\r\n" and
// every rune accepted by isLineBreak end a line and are not part of it. A
// final terminator does not start another line.
func eachLine(s string, fn func(n int, line string)) {
	n := 0
	for len(s) > 0 {
		n++
		i := strings.IndexFunc(s, isLineBreak)
		if i < 0 {
			fn(n, s)
			return
		}
		fn(n, s[:i])
		_, size := utf8.DecodeRuneInString(s[i:])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			size++
		}
		s = s[i+size:]
	}
}
