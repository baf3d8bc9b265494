package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SubjectCapability records which subjects a tutor can teach. Subjects
// are kept as a JSON object keyed by subject name so the record follows
// the configured taxonomy. The record is replaced wholesale on edit.
type SubjectCapability struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Subjects  types.JSONText `db:"subjects" json:"subjects"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// DecodeSubjects unmarshals the stored subject flags.
func (c *SubjectCapability) DecodeSubjects() (map[string]bool, error) {
	flags := make(map[string]bool)
	if len(c.Subjects) == 0 {
		return flags, nil
	}
	if err := json.Unmarshal(c.Subjects, &flags); err != nil {
		return nil, fmt.Errorf("decode subject capability: %w", err)
	}
	return flags, nil
}

// EncodeSubjects marshals and stores the subject flags.
func (c *SubjectCapability) EncodeSubjects(flags map[string]bool) error {
	payload, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("encode subject capability: %w", err)
	}
	c.Subjects = types.JSONText(payload)
	return nil
}

// CanTeach reports whether the capability marks subject true.
func (c *SubjectCapability) CanTeach(subject string) (bool, error) {
	flags, err := c.DecodeSubjects()
	if err != nil {
		return false, err
	}
	return flags[subject], nil
}
