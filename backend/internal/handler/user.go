package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wam-dev/threads/shared/api"
	"github.com/wam-dev/threads/shared/domain"
	mw "github.com/wam-dev/threads/shared/middleware"
	"github.com/wam-dev/threads/shared/utils"
)

// UpdateMe creates or updates the caller's profile and returns the saved user.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity := mw.GetIdentityFromContext(r)
	if identity == "" {
		http.Error(w, "Please sign-in", http.StatusUnauthorized)
		return
	}

	var body api.UpdateUserRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	profile := domain.UserProfile{
		IdentityId: identity,
		Username:   body.Username,
		Name:       body.Name,
		Bio:        body.Bio,
		Image:      body.Image,
	}
	if err := h.user.Upsert(r.Context(), profile, body.Path); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.user.Get(r.Context(), identity)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.UserResponse{User: *user})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.user.Get(r.Context(), chi.URLParam(r, "identityId"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.UserResponse{User: *user})
}

func (h *Handler) GetUserThreads(w http.ResponseWriter, r *http.Request) {
	result, err := h.user.Threads(r.Context(), chi.URLParam(r, "identityId"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if result == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	threads := api.NewThreadListResponse(result.Threads, false, h.render).Threads
	utils.WriteJSON(w, http.StatusOK, api.UserThreadsResponse{User: result.User, Threads: threads})
}
