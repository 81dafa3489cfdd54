package models

import "github.com/google/uuid"

// assignID fills a missing primary key before insert so the same models work
// against postgres and the sqlite test harness.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
