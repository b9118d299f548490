package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"quotagate/internal/apikey"
	"quotagate/internal/gate"
	"quotagate/internal/ratelimit/models"
	"quotagate/internal/token"
	"quotagate/internal/transport/httputil"
	dErrors "quotagate/pkg/domain-errors"
)

// TokenService issues, refreshes, and revokes token pairs.
type TokenService interface {
	IssuePair(ctx context.Context, userID string) (*token.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// KeyService issues API key credentials.
type KeyService interface {
	Issue(ctx context.Context, userID string) (string, *apikey.Credential, error)
}

// UsageReader reports current window counters for a partition key.
type UsageReader interface {
	Usage(ctx context.Context, partitionKey string) models.Usage
}

// AuthHandler serves the credential lifecycle endpoints. These sit behind
// the brute-force guard, not behind the gate: they are how callers obtain
// credentials in the first place.
type AuthHandler struct {
	tokens TokenService
	keys   KeyService
}

func NewAuthHandler(tokens TokenService, keys KeyService) *AuthHandler {
	return &AuthHandler{tokens: tokens, keys: keys}
}

func (h *AuthHandler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	pair, err := h.tokens.IssuePair(r.Context(), req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	access, err := h.tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": access,
	})
}

func (h *AuthHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.tokens.Revoke(r.Context(), req.RefreshToken); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) handleIssueKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	key, cred, err := h.keys.Issue(r.Context(), req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The plaintext key appears exactly once, in this response.
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"api_key":   key,
		"client_id": cred.ClientID,
	})
}

// APIHandler serves the protected endpoints behind the gate.
type APIHandler struct {
	usage UsageReader
}

func NewAPIHandler(usage UsageReader) *APIHandler {
	return &APIHandler{usage: usage}
}

func (h *APIHandler) handlePing(w http.ResponseWriter, r *http.Request) {
	identity, _ := gate.IdentityFrom(r.Context())
	resp := map[string]string{"status": "ok"}
	if identity != nil {
		resp["user_id"] = identity.UserID
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleQuota(w http.ResponseWriter, r *http.Request) {
	identity, ok := gate.IdentityFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no identity in request"))
		return
	}

	usage := h.usage.Usage(r.Context(), identity.PartitionKey())
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{
		"minute_count": usage.MinuteCount,
		"day_count":    usage.DayCount,
	})
}
