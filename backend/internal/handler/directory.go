package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/threads/shared/api"
	"github.com/itchan-dev/threads/shared/domain"
	"github.com/itchan-dev/threads/shared/utils"
)

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body api.CreateUserRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	userId, err := h.directory.CreateUser(r.Context(), domain.UserCreationData{
		ExternalId: body.ExternalId,
		Username:   body.Username,
		Name:       body.Name,
		Image:      body.Image,
		Bio:        body.Bio,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: userId})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.directory.GetUser(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.UserResponse{User: user})
}

// GetUserThreads returns the latest posts of a user with their replies.
func (h *Handler) GetUserThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.activity.GetUserThreads(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.UserThreadsResponse{Threads: threads})
}

func (h *Handler) CreateCommunity(w http.ResponseWriter, r *http.Request) {
	var body api.CreateCommunityRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	communityId, err := h.directory.CreateCommunity(r.Context(), domain.CommunityCreationData{
		ExternalId: body.ExternalId,
		Username:   body.Username,
		Name:       body.Name,
		Image:      body.Image,
		Bio:        body.Bio,
		CreatedBy:  body.CreatedBy,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: communityId})
}

// GetCommunity looks a community up by its external id.
func (h *Handler) GetCommunity(w http.ResponseWriter, r *http.Request) {
	community, err := h.directory.GetCommunity(r.Context(), chi.URLParam(r, "community"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.CommunityResponse{Community: community})
}
