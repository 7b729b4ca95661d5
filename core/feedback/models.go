package feedback

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roboclub/backend/core"
)

// Feedback is a per-session comment. Anonymous rows carry no author
// reference at all; AuthorName is resolved on read for the others.
type Feedback struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Content    string    `json:"content"`
	Anonymous  bool      `json:"anonymous"`
	UserID     string    `json:"user_id,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// NewFeedback is the submission payload.
type NewFeedback struct {
	SessionID string `json:"session_id" validate:"required"`
	Content   string `json:"content" validate:"required,notblank"`
	Anonymous bool   `json:"anonymous"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.Content = core.CleanString(nf.Content)
	return validate.Struct(nf)
}
