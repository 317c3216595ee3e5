package services

import (
	"time"

	"github.com/academic-portal/apiserver/types"
)

type catalogEntry struct {
	id, title, description string
}

// defaultCatalog is seeded for every new account, in this order.
var defaultCatalog = []catalogEntry{
	{id: "ΕΕΕ.7-3.7", title: "VLSI Design", description: "Very Large Scale Integration Design"},
	{id: "ΕΕΕ.7-3.2", title: "Control Systems II", description: "Advanced control systems and automation"},
	{id: "EEE.7-3.1", title: "Microprocessors", description: "Microprocessor architecture and design"},
	{id: "EEE.7-3.3", title: "Digital Signal Processing", description: "Signal processing techniques and applications"},
}

// DefaultCourses returns the four seeded enrolments for userID.
func DefaultCourses(userID string, createdAt time.Time) []types.Course {
	courses := make([]types.Course, 0, len(defaultCatalog))
	for _, entry := range defaultCatalog {
		courses = append(courses, types.Course{
			ID:          entry.id,
			Title:       entry.title,
			Description: entry.description,
			UserID:      userID,
			CreatedAt:   createdAt,
		})
	}
	return courses
}
