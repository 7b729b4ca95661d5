package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/feedback"
)

type feedbackRow struct {
	ID         string      `db:"id"`
	SessionID  string      `db:"session_id"`
	Content    string      `db:"content"`
	Anonymous  bool        `db:"anonymous"`
	UserID     null.String `db:"user_id"`
	AuthorName null.String `db:"author_name"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (r feedbackRow) toFeedback() feedback.Feedback {
	return feedback.Feedback{
		ID:         r.ID,
		SessionID:  r.SessionID,
		Content:    r.Content,
		Anonymous:  r.Anonymous,
		UserID:     r.UserID.String,
		AuthorName: r.AuthorName.String,
		CreatedAt:  r.CreatedAt,
	}
}

// newest first
var feedbackOrdering = core.DBOrdering{Field: "f.created_at"}

type feedbackRepository struct {
	db *sqlx.DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *sqlx.DB) *feedbackRepository {
	return &feedbackRepository{db: db}
}

func (repo feedbackRepository) CreateFeedback(ctx context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	fb.ID = uuid.New().String()
	// anonymous rows persist a NULL author
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO feedback (id, session_id, content, anonymous, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		fb.ID, fb.SessionID, fb.Content, fb.Anonymous,
		null.NewString(fb.UserID, !fb.Anonymous && fb.UserID != ""), fb.CreatedAt,
	)
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "inserting feedback")
	}
	return fb, nil
}

func (repo feedbackRepository) QueryFeedback(ctx context.Context, sessionID string) ([]feedback.Feedback, error) {
	var rows []feedbackRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT f.id, f.session_id, f.content, f.anonymous, f.user_id, u.name AS author_name, f.created_at
		 FROM feedback f
		 LEFT JOIN "user" u ON u.id = f.user_id
		 WHERE f.session_id = $1
		 ORDER BY `+feedbackOrdering.String(), sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying feedback")
	}
	fbs := make([]feedback.Feedback, 0, len(rows))
	for _, r := range rows {
		fbs = append(fbs, r.toFeedback())
	}
	return fbs, nil
}
