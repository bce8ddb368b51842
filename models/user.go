package models

// User is a registered profile. It is written once at registration and
// never changed afterwards.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	Gender     string    `json:"gender"`
	ProfilePic string    `json:"profilePic"`
	Location   *Location `json:"location,omitempty"`
	CreatedAt  string    `json:"createdAt"`
}

// Author is the snapshot of a user copied onto videos, comments and
// replies at creation time.
type Author struct {
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	UserProfilePic string `json:"userProfilePic"`
}

func (u *User) Author() Author {
	return Author{
		UserID:         u.ID,
		UserName:       u.Name,
		UserProfilePic: u.ProfilePic,
	}
}
