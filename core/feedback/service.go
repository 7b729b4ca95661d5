package feedback

import (
	"context"
	"time"

	"github.com/roboclub/backend/core/user"
)

type (
	Repository interface {
		CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
		// QueryFeedback returns a session's feedback, newest first, with author
		// names resolved for non-anonymous rows only.
		QueryFeedback(ctx context.Context, sessionID string) ([]Feedback, error)
	}

	ServiceInterface interface {
		Submit(ctx context.Context, actor user.User, nf NewFeedback) (Feedback, error)
		BySession(ctx context.Context, sessionID string) ([]Feedback, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

// Submit persists the feedback. When anonymous, the author reference is
// dropped before the row is written: the identity is not retrievable from
// storage afterwards, whoever asks.
func (svc *service) Submit(ctx context.Context, actor user.User, nf NewFeedback) (Feedback, error) {
	fb := Feedback{
		SessionID: nf.SessionID,
		Content:   nf.Content,
		Anonymous: nf.Anonymous,
		CreatedAt: time.Now().UTC(),
	}
	if !nf.Anonymous {
		fb.UserID = actor.ID
	}
	return svc.repo.CreateFeedback(ctx, fb)
}

func (svc *service) BySession(ctx context.Context, sessionID string) ([]Feedback, error) {
	return svc.repo.QueryFeedback(ctx, sessionID)
}
