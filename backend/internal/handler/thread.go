package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wam-dev/threads/shared/api"
	"github.com/wam-dev/threads/shared/domain"
	"github.com/wam-dev/threads/shared/utils"
)

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", domain.DefaultPage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pageSize, err := queryInt(r, "page_size", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.thread.List(r.Context(), page, pageSize)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.NewThreadListResponse(result.Threads, result.IsNext, h.render))
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var body api.CreateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.thread.Create(r.Context(), domain.ThreadCreationData{
		Text:        body.Text,
		AuthorId:    user.Id,
		CommunityId: body.CommunityId,
		Path:        body.Path,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	thread, err := h.thread.GetById(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if thread == nil {
		http.Error(w, "Thread not found", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.NewThreadResponse(thread, h.render))
}

func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var body api.CreateReplyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.thread.Reply(r.Context(), domain.ReplyCreationData{
		ParentId: chi.URLParam(r, "id"),
		Text:     body.Text,
		AuthorId: user.Id,
		Path:     body.Path,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}
