package model

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User is an investor registered in the tracker
type User struct {
	ID     string  `json:"user_id"`
	Name   string  `json:"name"`
	Mobile string  `json:"mobile"`          // SMS destination
	Email  *string `json:"email,omitempty"` // Optional
}

// UserRequest is used for registering and editing a user
type UserRequest struct {
	Name   string  `json:"name"`
	Mobile string  `json:"mobile"`
	Email  *string `json:"email"`
}
