package model

// User is a directory record mapped to the attributes the avatar service needs
type User struct {
	UID   string
	Email string
	Photo []byte // stored thumbnail, nil when the directory has none
}

// HasPhoto reports whether the directory holds a stored image for the user
func (u *User) HasPhoto() bool {
	return u != nil && len(u.Photo) > 0
}
