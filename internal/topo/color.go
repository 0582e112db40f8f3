package topo

import (
	"strings"
	"unicode"
)

// Grade colour bands on the Fontainebleau scale.
const (
	ColorEasy    = "#2e7d32" // up to 5+
	ColorMedium  = "#1565c0" // 6a to 6b+
	ColorHard    = "#ef6c00" // 6c to 7a+
	ColorVery    = "#c62828" // 7b to 7c+
	ColorElite   = "#212121" // 8a and up
	ColorUnknown = "#9e9e9e"
)

// GradeColor returns the stroke colour for a Font grade such as "6a+" or "7B".
func GradeColor(grade string) string {
	n, letter, ok := parseFont(grade)
	if !ok {
		return ColorUnknown
	}
	switch {
	case n <= 5:
		return ColorEasy
	case n == 6 && letter <= 'b':
		return ColorMedium
	case n == 6 || (n == 7 && letter == 'a'):
		return ColorHard
	case n == 7:
		return ColorVery
	default:
		return ColorElite
	}
}

// parseFont splits "7b+" into (7, 'b'). A bare number like "5" yields letter 'a'.
func parseFont(grade string) (int, byte, bool) {
	g := strings.ToLower(strings.TrimSpace(grade))
	if g == "" || !unicode.IsDigit(rune(g[0])) {
		return 0, 0, false
	}
	n := int(g[0] - '0')
	if len(g) > 1 && unicode.IsDigit(rune(g[1])) {
		return 0, 0, false
	}
	letter := byte('a')
	if len(g) > 1 {
		switch c := g[1]; c {
		case 'a', 'b', 'c':
			letter = c
		case '+':
		default:
			return 0, 0, false
		}
	}
	return n, letter, true
}
