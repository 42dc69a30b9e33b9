package memory

import "strings"

// LoadData parses a plain-text dataset. Each line holds a code and its text
// separated by whitespace; extra columns are ignored and lines with fewer
// than two columns are skipped.
func LoadData(text string) []Pair {
	var pairs []Pair
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pairs = append(pairs, Pair{Code: fields[0], Text: fields[1]})
	}
	return pairs
}
