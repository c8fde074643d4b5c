package api

import (
	"github.com/itchan-dev/threads/shared/domain"
)

// Request DTOs

// Path is an opaque page key handed back to the presentation layer for refresh.
type CreateThreadRequest struct {
	Text        string  `json:"text" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	CommunityId *string `json:"community_id,omitempty"`
	Path        string  `json:"path,omitempty"`
}

type AddCommentRequest struct {
	Text   string `json:"text" validate:"required"`
	Author string `json:"author" validate:"required"`
	Path   string `json:"path,omitempty"`
}

// Response DTOs

type CreatedResponse struct {
	Id string `json:"id"`
}

// FeedResponse keeps the field names the web client already consumes
type FeedResponse struct {
	Posts  []*domain.Thread `json:"posts"`
	IsNext bool             `json:"is_next"`
}

type ThreadResponse struct {
	domain.Thread
}
