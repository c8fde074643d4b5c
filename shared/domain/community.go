package domain

type CommunityCreationData struct {
	ExternalId ExternalId
	Username   string
	Name       string
	Image      string
	Bio        string
	CreatedBy  *UserId
}

// Community is addressed by callers with ExternalId, threads reference its storage Id.
type Community struct {
	Id         CommunityId `json:"id"`
	ExternalId ExternalId  `json:"external_id"`
	Username   string      `json:"username,omitempty"`
	Name       string      `json:"name,omitempty"`
	Image      string      `json:"image,omitempty"`
	Bio        string      `json:"bio,omitempty"`
	CreatedBy  *UserId     `json:"created_by,omitempty"`
	Threads    []ThreadId  `json:"threads,omitempty"`
}

func (c Community) Summary() *Community {
	return &Community{Id: c.Id, ExternalId: c.ExternalId, Name: c.Name, Image: c.Image}
}
