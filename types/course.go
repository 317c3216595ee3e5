package types

import "time"

// Course is an enrolment owned by a single user. ID is the course code and
// is only unique together with UserID.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Snapshot is a full export of the store.
type Snapshot struct {
	Users   []User   `json:"users"`
	Courses []Course `json:"courses"`
}

// Dashboard is what a signed-in student sees after login.
type Dashboard struct {
	User     User     `json:"user"`
	Greeting string   `json:"greeting"`
	Courses  []Course `json:"courses"`
}
