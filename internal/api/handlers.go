package api

import (
	"net/http"

	"gwi.com/reelpick/internal/auth"
	"gwi.com/reelpick/internal/core"
	"gwi.com/reelpick/internal/store"
)

type APIHandler struct {
	authService           *core.AuthService
	likeService           *core.LikeService
	recommendationService *core.RecommendationService
	secureCookies         bool
}

func NewAPIHandler(as *core.AuthService, ls *core.LikeService, rs *core.RecommendationService, secureCookies bool) *APIHandler {
	return &APIHandler{
		authService:           as,
		likeService:           ls,
		recommendationService: rs,
		secureCookies:         secureCookies,
	}
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func viewOfUser(u *store.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type messageWithUser struct {
	Message string   `json:"message"`
	User    userView `json:"user"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !bindRequest(w, r, &req, "Email and password required") {
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "Something went wrong")
		return
	}

	auth.SetSessionCookie(w, session.Token, h.authService.SessionTTL(), h.secureCookies)
	respondJSON(w, http.StatusOK, messageWithUser{
		Message: "Login successful",
		User:    userView(session.User),
	})
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookies)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

type SignupRequest struct {
	ID       string `json:"id"`
	Email    string `json:"email" validate:"required"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !bindRequest(w, r, &req, "Email and password are required") {
		return
	}

	user, err := h.authService.Register(r.Context(), core.RegisterInput{
		ID:       req.ID,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to create user")
		return
	}

	respondJSON(w, http.StatusOK, messageWithUser{Message: "User created", User: viewOfUser(user)})
}

type meResponse struct {
	User    userView           `json:"user"`
	Context *store.UserContext `json:"context"`
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())

	user, uc, err := h.authService.Me(r.Context(), id.ID)
	if err != nil {
		respondServiceError(w, r, err, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, meResponse{User: viewOfUser(user), Context: uc})
}

type PreferencesRequest struct {
	PreferredGenres []string `json:"preferredGenres" validate:"required"`
}

func (h *APIHandler) PreferencesHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())

	var req PreferencesRequest
	if !bindRequest(w, r, &req, "preferredGenres is required") {
		return
	}

	uc, err := h.recommendationService.UpdatePreferences(r.Context(), id.ID, req.PreferredGenres)
	if err != nil {
		respondServiceError(w, r, err, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"preferredGenres": uc.PreferredGenres})
}

type RecommendationRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// RecommendationsHandler is open to anonymous callers. A session, when
// present, personalises isLiked and records the prompt.
func (h *APIHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if !bindRequest(w, r, &req, "Prompt is required") {
		return
	}

	result, err := h.recommendationService.Recommend(r.Context(), req.Prompt, identityFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to generate recommendation")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type LikeRequest struct {
	RecommendationID string `json:"recommendationId" validate:"required"`
}

func (h *APIHandler) LikeHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())

	var req LikeRequest
	if !bindRequest(w, r, &req, "Recommendation ID is required") {
		return
	}

	result, err := h.likeService.Toggle(r.Context(), id.ID, req.RecommendationID)
	if err != nil {
		respondServiceError(w, r, err, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type likesResponse struct {
	LikedRecommendations []string `json:"likedRecommendations"`
	TotalLikes           int      `json:"totalLikes"`
}

func (h *APIHandler) LikesHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())

	liked, err := h.likeService.Liked(r.Context(), id.ID)
	if err != nil {
		respondServiceError(w, r, err, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, likesResponse{LikedRecommendations: liked, TotalLikes: len(liked)})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
