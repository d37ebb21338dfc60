// Package phone normalizes Philippine mobile numbers for the SMS dispatch
// contract. The dispatcher only ever sends to the canonical +63XXXXXXXXXX
// form (13 characters); anything that cannot be normalized is skipped by the
// caller rather than treated as an error worth failing an operation over.
package phone

import (
	"errors"
	"strings"
)

// ErrInvalid marks a number that cannot be normalized to a PH mobile number.
var ErrInvalid = errors.New("invalid philippine mobile number")

// Normalize returns the canonical +63XXXXXXXXXX form of a PH mobile number.
// Accepted inputs (after stripping spaces, dashes and parentheses):
//
//	+639171234567
//	639171234567
//	09171234567
//	9171234567
//
// The subscriber part must be ten digits starting with 9.
func Normalize(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, raw)

	var subscriber string
	switch {
	case strings.HasPrefix(cleaned, "+63"):
		subscriber = cleaned[3:]
	case strings.HasPrefix(cleaned, "63") && len(cleaned) == 12:
		subscriber = cleaned[2:]
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 11:
		subscriber = cleaned[1:]
	case len(cleaned) == 10:
		subscriber = cleaned
	default:
		return "", ErrInvalid
	}

	if len(subscriber) != 10 || subscriber[0] != '9' || !digitsOnly(subscriber) {
		return "", ErrInvalid
	}
	return "+63" + subscriber, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
