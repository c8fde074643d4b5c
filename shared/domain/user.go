package domain

type UserCreationData struct {
	ExternalId ExternalId
	Username   string
	Name       string
	Image      string
	Bio        string
}

type User struct {
	Id         UserId     `json:"id"`
	ExternalId ExternalId `json:"external_id,omitempty"`
	Username   string     `json:"username,omitempty"`
	Name       string     `json:"name,omitempty"`
	Image      string     `json:"image,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	Threads    []ThreadId `json:"threads,omitempty"`
}

// Summary keeps only the fields exposed when a user is expanded inside a thread.
func (u User) Summary() *User {
	return &User{Id: u.Id, ExternalId: u.ExternalId, Name: u.Name, Image: u.Image}
}
