package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/roboclub/backend/core/feedback"
)

type feedbackRepository struct {
	db *DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *DB) *feedbackRepository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(_ context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	repo.db.feedback.Lock()
	defer repo.db.feedback.Unlock()

	fb.ID = uuid.New().String()
	if fb.Anonymous {
		fb.UserID = "" // no author reference survives an anonymous submission
	}
	repo.db.feedback.table = append(repo.db.feedback.table, fb)
	return fb, nil
}

func (repo *feedbackRepository) QueryFeedback(_ context.Context, sessionID string) ([]feedback.Feedback, error) {
	repo.db.feedback.RLock()
	fbs := make([]feedback.Feedback, 0)
	for _, fb := range repo.db.feedback.table {
		if fb.SessionID == sessionID {
			fbs = append(fbs, fb)
		}
	}
	repo.db.feedback.RUnlock()

	sort.SliceStable(fbs, func(i, j int) bool { return fbs[i].CreatedAt.After(fbs[j].CreatedAt) })

	repo.db.user.RLock()
	defer repo.db.user.RUnlock()
	for i := range fbs {
		if fbs[i].Anonymous {
			continue
		}
		if usr, ok := repo.db.user.table[fbs[i].UserID]; ok {
			fbs[i].AuthorName = usr.Name
		}
	}
	return fbs, nil
}
