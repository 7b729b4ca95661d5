package session

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roboclub/backend/core"
)

// Session is a scheduled club event with a mentor creator and a participant roster.
// Stored normalized (ids only); display names are resolved at the query boundary.
type Session struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Date          time.Time     `json:"date"`
	CreatedBy     string        `json:"created_by"`
	CreatedByName string        `json:"created_by_name,omitempty"`
	Participants  []Participant `json:"participants"`
	CreatedAt     time.Time     `json:"created_at"` // UTC
}

// Participant is a roster entry, resolved for display.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Participation is the per-(session, user) points ledger row.
type Participation struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name,omitempty"`
	UserEmail     string    `json:"user_email,omitempty"`
	PointsAwarded int       `json:"points_awarded"`
	AwardedBy     string    `json:"awarded_by,omitempty"`
	AwardedByName string    `json:"awarded_by_name,omitempty"`
	AwardedAt     time.Time `json:"awarded_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// Detail is a session plus its full ledger, points first.
type Detail struct {
	Session        Session         `json:"session"`
	Participations []Participation `json:"participations"`
}

// NewSession contains information needed to schedule a new Session.
type NewSession struct {
	Title       string    `json:"title" validate:"required,notblank"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	return validate.Struct(ns)
}

// PointsAward is the award-points payload.
type PointsAward struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	Points    int    `json:"points" validate:"required,min=1,max=100"`
}

func (pa *PointsAward) Validate(validate *validator.Validate) error {
	return validate.Struct(pa)
}
