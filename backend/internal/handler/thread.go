package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/threads/shared/api"
	"github.com/itchan-dev/threads/shared/domain"
	"github.com/itchan-dev/threads/shared/utils"
)

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var body api.CreateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	creation := domain.ThreadCreationData{
		Text:                body.Text,
		Author:              body.Author,
		CommunityExternalId: body.CommunityId,
	}
	threadId, err := h.thread.Create(r.Context(), creation, body.Path)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: threadId})
}

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := h.pageParams(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	feed, err := h.thread.GetFeed(r.Context(), page, pageSize)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	posts := feed.Threads
	if posts == nil {
		posts = []*domain.Thread{}
	}
	utils.WriteJSON(w, http.StatusOK, api.FeedResponse{Posts: posts, IsNext: feed.HasNext})
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadId := chi.URLParam(r, "thread")

	thread, err := h.thread.Get(r.Context(), threadId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.ThreadResponse{Thread: thread})
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	threadId := chi.URLParam(r, "thread")

	var body api.AddCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	comment := domain.CommentCreationData{
		ThreadId: threadId,
		Text:     body.Text,
		Author:   body.Author,
	}
	commentId, err := h.thread.AddComment(r.Context(), comment, body.Path)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: commentId})
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	threadId := chi.URLParam(r, "thread")
	path := r.URL.Query().Get("path")

	if err := h.thread.Delete(r.Context(), threadId, path); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
