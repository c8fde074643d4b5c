package domain

import (
	"time"
)

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	Text     ThreadText
	Author   UserId
	ParentId *ThreadId
	// resolved by the service from CommunityExternalId, storage never sees the external id
	Community           *CommunityId
	CommunityExternalId *ExternalId
	CreatedAt           time.Time
}

type CommentCreationData struct {
	ThreadId ThreadId
	Text     ThreadText
	Author   UserId
}

// Thread is both a post and a reply: replies carry ParentId.
// AuthorId/CommunityId/ChildIds are the stored references, Author/Community/Children
// are filled only when the references are expanded for a response.
type Thread struct {
	Id          ThreadId     `json:"id"`
	Text        ThreadText   `json:"text"`
	AuthorId    UserId       `json:"author_id"`
	CommunityId *CommunityId `json:"community_id,omitempty"`
	ParentId    *ThreadId    `json:"parent_id,omitempty"`
	ChildIds    []ThreadId   `json:"child_ids"`
	CreatedAt   time.Time    `json:"created_at"`

	Author    *User      `json:"author,omitempty"`
	Community *Community `json:"community,omitempty"`
	Children  []*Thread  `json:"children,omitempty"`
}

func (t *Thread) IsRoot() bool {
	return t.ParentId == nil
}

// ThreadPage is a single page of the root feed
type ThreadPage struct {
	Threads []*Thread
	HasNext bool
}
