package models

// LikeSet maps user ids to true. Absence means "not liked".
type LikeSet map[string]bool

func (s LikeSet) Has(userID string) bool {
	return s[userID]
}

// Count is the number of users in the set.
func (s LikeSet) Count() int {
	n := 0
	for _, liked := range s {
		if liked {
			n++
		}
	}
	return n
}

// Toggle flips membership of userID and reports whether the user likes the
// entity afterwards. A nil set is allocated on first add.
func (s *LikeSet) Toggle(userID string) bool {
	if (*s).Has(userID) {
		delete(*s, userID)
		return false
	}
	if *s == nil {
		*s = LikeSet{}
	}
	(*s)[userID] = true
	return true
}
