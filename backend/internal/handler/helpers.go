package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/wam-dev/threads/shared/domain"
	internal_errors "github.com/wam-dev/threads/shared/errors"
	mw "github.com/wam-dev/threads/shared/middleware"
	"github.com/wam-dev/threads/shared/utils"
)

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}

// queryInt reads an optional integer query parameter, fallback when absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return parseIntParam(raw, name)
}

// currentUser resolves the caller's user record. Posting requires a saved
// profile, so a caller without one gets 403.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	identity := mw.GetIdentityFromContext(r)
	if identity == "" {
		http.Error(w, "Please sign-in", http.StatusUnauthorized)
		return nil, false
	}

	user, err := h.user.Get(r.Context(), identity)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return nil, false
	}
	if user == nil {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ErrorWithStatusCode{
			Message:    "Complete your profile before posting",
			StatusCode: http.StatusForbidden,
		})
		return nil, false
	}
	return user, true
}
