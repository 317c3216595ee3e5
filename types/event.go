package types

import "time"

// UserRegistered is published once a user and their default courses exist.
type UserRegistered struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	CourseIDs    []string  `json:"courseIds"`
	RegisteredAt time.Time `json:"registeredAt"`
}
