package utils

import (
	"math/rand"
	"strings"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// ContainsStringIgnoreCase returns true iff the provided string slice hay
// contains string needle, compared case-insensitively. Role lists coming back
// from the auth service are free text, so "Admin" and "admin" must match.
func ContainsStringIgnoreCase(hay []string, needle string) bool {
	for _, str := range hay {
		if strings.EqualFold(str, needle) {
			return true
		}
	}
	return false
}

// RandomAlphabetString generates a random lower case string of length n.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
