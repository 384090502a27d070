package store

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"createdAt"`
}

// UserContext is the per-user preference record. It is created lazily the
// first time the user does something that needs it.
type UserContext struct {
	UserID               string    `json:"userId"`
	PreferredGenres      []string  `json:"preferredGenres"`
	RecentSearches       []string  `json:"recentSearches"`
	LikedRecommendations []string  `json:"likedRecommendations"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// HasLiked reports whether recommendationID is in the liked set.
func (c *UserContext) HasLiked(recommendationID string) bool {
	for _, id := range c.LikedRecommendations {
		if id == recommendationID {
			return true
		}
	}
	return false
}
