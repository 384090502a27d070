package core

import (
	"context"
	"fmt"
	"strings"

	"gwi.com/reelpick/internal/auth"
	"gwi.com/reelpick/internal/logging"
	"gwi.com/reelpick/internal/store"
)

// MaxRecentSearches caps the stored search history per user.
const MaxRecentSearches = 20

type RecommendationService struct {
	store store.Store
	llm   *LLMService
}

func NewRecommendationService(st store.Store, llm *LLMService) *RecommendationService {
	return &RecommendationService{store: st, llm: llm}
}

// Recommend makes one completion call for prompt and parses the answer.
// caller may be nil for anonymous requests; for signed-in callers the result
// carries their like state and the prompt is added to their recent searches.
func (s *RecommendationService) Recommend(ctx context.Context, prompt string, caller *auth.Identity) (*RecommendationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, invalidInput("Prompt is required")
	}

	raw, err := s.llm.Recommend(ctx, prompt)
	if err != nil {
		return nil, err
	}

	liked := func(string) bool { return false }
	if caller != nil {
		if uc := s.recordSearch(ctx, caller.ID, prompt); uc != nil {
			liked = uc.HasLiked
		}
	}

	movies, shows := ParseCompletion(raw)
	return &RecommendationResult{
		Movies: toRecommendations(KindMovie, movies, liked),
		Shows:  toRecommendations(KindShow, shows, liked),
		Raw:    raw,
	}, nil
}

// recordSearch appends prompt to the caller's recent searches. Failures are
// logged and never fail the request.
func (s *RecommendationService) recordSearch(ctx context.Context, userID, prompt string) *store.UserContext {
	log := logging.Ctx(ctx)

	uc, err := s.store.GetOrCreateUserContext(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load user context for search history")
		return nil
	}

	searches := appendRecent(uc.RecentSearches, strings.TrimSpace(prompt), MaxRecentSearches)
	if err := s.store.UpdateRecentSearches(ctx, userID, searches); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to record recent search")
		return uc
	}
	uc.RecentSearches = searches
	return uc
}

func appendRecent(history []string, entry string, limit int) []string {
	out := append(append([]string{}, history...), entry)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// UpdatePreferences replaces the user's preferred genres. Blank entries and
// duplicates are dropped, first occurrence wins.
func (s *RecommendationService) UpdatePreferences(ctx context.Context, userID string, genres []string) (*store.UserContext, error) {
	seen := make(map[string]struct{}, len(genres))
	cleaned := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		key := strings.ToLower(g)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, g)
	}

	uc, err := s.store.GetOrCreateUserContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user context: %w", err)
	}
	if err := s.store.UpdatePreferredGenres(ctx, userID, cleaned); err != nil {
		return nil, fmt.Errorf("failed to save preferred genres: %w", err)
	}
	uc.PreferredGenres = cleaned
	return uc, nil
}
