package domain

import "time"

type User struct {
	ID           string
	Username     string // unique, case-sensitive
	PasswordHash string // bcrypt or argon2id encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserView is the public projection of a User. It never carries the hash.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}
