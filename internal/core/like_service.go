package core

import (
	"context"
	"fmt"
	"strings"

	"gwi.com/reelpick/internal/logging"
	"gwi.com/reelpick/internal/metrics"
	"gwi.com/reelpick/internal/store"
)

type LikeResult struct {
	Success    bool `json:"success"`
	IsLiked    bool `json:"isLiked"`
	TotalLikes int  `json:"totalLikes"`
}

type LikeService struct {
	store store.Store
}

func NewLikeService(st store.Store) *LikeService {
	return &LikeService{store: st}
}

// Toggle flips recommendationID in the user's liked set, creating the user
// context on first use. The read-modify-write is not isolated: two concurrent
// toggles of the same id by the same user can lose one update.
func (s *LikeService) Toggle(ctx context.Context, userID, recommendationID string) (*LikeResult, error) {
	if strings.TrimSpace(recommendationID) == "" {
		return nil, invalidInput("Recommendation ID is required")
	}

	uc, err := s.store.GetOrCreateUserContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user context: %w", err)
	}

	wasLiked := uc.HasLiked(recommendationID)
	var updated []string
	if wasLiked {
		updated = make([]string, 0, len(uc.LikedRecommendations))
		for _, id := range uc.LikedRecommendations {
			if id != recommendationID {
				updated = append(updated, id)
			}
		}
	} else {
		updated = append(append([]string{}, uc.LikedRecommendations...), recommendationID)
	}

	if err := s.store.UpdateLikedRecommendations(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("failed to save liked recommendations: %w", err)
	}

	metrics.RecordLikeToggle(!wasLiked)
	logging.Ctx(ctx).Debug().
		Str("user_id", userID).
		Str("recommendation_id", recommendationID).
		Bool("liked", !wasLiked).
		Int("total", len(updated)).
		Msg("Toggled like")

	return &LikeResult{Success: true, IsLiked: !wasLiked, TotalLikes: len(updated)}, nil
}

// Liked returns the user's liked recommendation ids, empty when the user has
// no context yet.
func (s *LikeService) Liked(ctx context.Context, userID string) ([]string, error) {
	uc, err := s.store.GetUserContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user context: %w", err)
	}
	if uc == nil || uc.LikedRecommendations == nil {
		return []string{}, nil
	}
	return uc.LikedRecommendations, nil
}
