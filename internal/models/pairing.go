package models

import "time"

// Pairing is one committed student-tutor-subject engagement. Pairings
// are append-only: they are never deleted, only flagged inactive.
type Pairing struct {
	ID      string    `db:"id" json:"id"`
	Student string    `db:"student" json:"student"`
	Tutor   string    `db:"tutor" json:"tutor"`
	Subject string    `db:"subject" json:"subject"`
	Date    time.Time `db:"date" json:"date"`
	Day     string    `db:"day" json:"day"`
	// Period is the slot's position in its day: 0 for before school,
	// 1..N for periods, N+1 for after school.
	Period    int       `db:"period" json:"period"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
