package models

// Profile is the read model behind a user's profile page. User is nil when
// the user record does not exist; Videos are still filled in that case.
type Profile struct {
	User       *User   `json:"user"`
	Videos     []Video `json:"videos"`
	VideoCount int     `json:"videoCount"`
	TotalLikes int     `json:"totalLikes"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
