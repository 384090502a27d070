package core

import (
	"regexp"
	"strings"
)

const (
	moviesMarker = "Movies:"
	showsMarker  = "TV Series:"
)

var (
	// candidateLine is the cheap pre-filter: number, bold title, opening
	// parenthesis followed by a digit.
	candidateLine = regexp.MustCompile(`^\d+\.\s+\*\*[^*]+\*\*\s+\(\d+`)
	entryLine     = regexp.MustCompile(`^(\d+)\.\s+\*\*([^*]+)\*\*\s+\(([^)]+)\):\s+(.+)`)
)

// Entry is one parsed line of completion output.
type Entry struct {
	Title       string `json:"title"`
	Year        string `json:"year"`
	Description string `json:"description"`
}

// ParseCompletion splits completion text into its movie and TV series
// sections. Text without a "TV Series:" marker yields two empty lists. It
// never fails and the returned slices are never nil.
func ParseCompletion(text string) (movies, shows []Entry) {
	movies, shows = []Entry{}, []Entry{}

	before, after, found := strings.Cut(text, showsMarker)
	if !found {
		return movies, shows
	}

	if _, moviesSection, ok := strings.Cut(before, moviesMarker); ok {
		movies = parseSection(moviesSection)
	}
	shows = parseSection(after)
	return movies, shows
}

func parseSection(section string) []Entry {
	entries := []Entry{}
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !candidateLine.MatchString(line) {
			continue
		}
		m := entryLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entries = append(entries, Entry{
			Title:       strings.TrimSpace(m[2]),
			Year:        strings.TrimSpace(m[3]),
			Description: strings.TrimSpace(m[4]),
		})
	}
	return entries
}
