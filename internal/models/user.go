package models

// UserType distinguishes organization admins from regular users.
type UserType string

const (
	UserTypeAdmin   UserType = "admin"
	UserTypeRegular UserType = "regular"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeAdmin || t == UserTypeRegular
}

// UsernameField is the document field that must be unique across users.
const UsernameField = "username"

// User is a stored account. Password holds the bcrypt hash and must never be
// written to a response; use ToPublic.
type User struct {
	ID       string   `json:"_id,omitempty"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	OrgID    string   `json:"orgId,omitempty"`
	UserType UserType `json:"userType"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID       string   `json:"_id"`
	Username string   `json:"username"`
	OrgID    string   `json:"orgId,omitempty"`
	UserType UserType `json:"userType"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:       u.ID,
		Username: u.Username,
		OrgID:    u.OrgID,
		UserType: u.UserType,
	}
}
