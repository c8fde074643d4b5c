package api

import "github.com/itchan-dev/threads/shared/domain"

type CreateCommunityRequest struct {
	ExternalId string  `json:"external_id" validate:"required"`
	Username   string  `json:"username" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Image      string  `json:"image,omitempty" validate:"omitempty,url"`
	Bio        string  `json:"bio,omitempty"`
	CreatedBy  *string `json:"created_by,omitempty"`
}

type CommunityResponse struct {
	domain.Community
}
