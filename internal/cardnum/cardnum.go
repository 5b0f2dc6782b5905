package cardnum

import "strings"

// LastFourFallback is returned by LastFour for inputs shorter than four characters.
const LastFourFallback = "0000"

func IsDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// LastN returns the trailing n characters of s, or s itself when shorter.
func LastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// LastFour returns the final four characters of a card number. Inputs that cannot
// yield four characters get LastFourFallback.
func LastFour(pan string) string {
	if len(pan) < 4 {
		return LastFourFallback
	}
	return LastN(pan, 4)
}

// Mask keeps only the last four digits visible.
func Mask(pan string) string {
	n := len(pan)
	if n == 0 {
		return ""
	}
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	return strings.Repeat("*", n-4) + pan[n-4:]
}
