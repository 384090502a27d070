package core

import (
	"strings"

	"github.com/google/uuid"
)

const (
	KindMovie = "movie"
	KindShow  = "show"
)

// recommendationNamespace seeds the name-based ids so the same title maps to
// the same id on every request.
var recommendationNamespace = uuid.MustParse("6f1d3c52-8a47-4d0e-9b8e-2c5a7e0f4b19")

type Recommendation struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Year        string `json:"year"`
	Description string `json:"description"`
	IsLiked     bool   `json:"isLiked"`
}

type RecommendationResult struct {
	Movies []Recommendation `json:"movies"`
	Shows  []Recommendation `json:"shows"`
	Raw    string           `json:"raw"`
}

func RecommendationID(kind, title, year string) string {
	name := kind + "|" + strings.ToLower(strings.TrimSpace(title)) + "|" + strings.TrimSpace(year)
	return uuid.NewSHA1(recommendationNamespace, []byte(name)).String()
}

func toRecommendations(kind string, entries []Entry, liked func(string) bool) []Recommendation {
	out := make([]Recommendation, 0, len(entries))
	for _, e := range entries {
		id := RecommendationID(kind, e.Title, e.Year)
		out = append(out, Recommendation{
			ID:          id,
			Title:       e.Title,
			Year:        e.Year,
			Description: e.Description,
			IsLiked:     liked(id),
		})
	}
	return out
}
