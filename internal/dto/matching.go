package dto

import "github.com/noah-isme/tutoring-api/internal/timetable"

// MatchRequest asks for tutor proposals in one subject.
type MatchRequest struct {
	Subject string `json:"subject" validate:"required"`
}

// MatchProposal is one proposed tutor for one slot. Proposals are held
// server-side until the student selects one or they expire.
type MatchProposal struct {
	Slot         timetable.Slot `json:"slot"`
	DisplayLabel string         `json:"display_label"`
	TutorID      string         `json:"tutor_id"`
	TutorName    string         `json:"tutor_name,omitempty"`
	Subject      string         `json:"subject"`
}

// MatchResponse returns the proposals in grid order. An empty list
// means no tutor is currently available for the subject.
type MatchResponse struct {
	Proposals []MatchProposal `json:"proposals"`
	Message   string          `json:"message,omitempty"`
}

// SelectRequest commits one of the caller's held proposals.
type SelectRequest struct {
	Slot timetable.Slot `json:"slot" validate:"required"`
}

// CapabilityRequest replaces a tutor's subject flags. Keys must belong
// to the configured taxonomy.
type CapabilityRequest struct {
	Subjects map[string]bool `json:"subjects" validate:"required"`
}

// CapabilityCategory groups subject flags the way the taxonomy does.
type CapabilityCategory struct {
	Name     string          `json:"name"`
	Subjects map[string]bool `json:"subjects"`
}

// CapabilityResponse is a tutor's subject flags organized by category.
type CapabilityResponse struct {
	Categories []CapabilityCategory `json:"categories"`
}

// BroadcastRequest sends a message to every tutor capable of any of the
// listed subjects.
type BroadcastRequest struct {
	Subjects []string `json:"subjects" validate:"required,min=1"`
	Subject  string   `json:"subject" validate:"required"`
	Body     string   `json:"body" validate:"required"`
}

// BroadcastResponse reports how many tutors were addressed.
type BroadcastResponse struct {
	Recipients int `json:"recipients"`
}
