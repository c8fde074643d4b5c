package domain

type (
	UserId      = string
	ExternalId  = string
	CommunityId = string

	ThreadId   = string
	ThreadText = string
)
