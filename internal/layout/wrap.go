package layout

import "strings"

// Measure returns the drawn width of s in the current font.
type Measure func(s string) float64

// Wrap packs the words of text greedily into lines no wider than maxWidth,
// breaking before the word that would overflow. A word wider than maxWidth
// gets a line of its own. Line breaks in text count as spaces and an empty
// text yields a single empty line.
func Wrap(measure Measure, text string, maxWidth float64) []string {
	words := strings.Fields(strings.NewReplacer("\r", " ", "\n", " ").Replace(text))
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if next := line + " " + w; measure(next) <= maxWidth {
			line = next
			continue
		}
		lines = append(lines, line)
		line = w
	}
	return append(lines, line)
}

// clip hard-truncates s to n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
