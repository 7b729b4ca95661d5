package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/session"
)

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) userName(id string) string {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	if usr, ok := repo.db.user.table[id]; ok {
		return usr.Name
	}
	return ""
}

func (repo *sessionRepository) resolve(s session.Session) session.Session {
	s.CreatedByName = repo.userName(s.CreatedBy)
	s.Participants = []session.Participant{}

	repo.db.participant.RLock()
	ids := repo.db.participant.table[s.ID]
	repo.db.participant.RUnlock()

	repo.db.user.RLock()
	defer repo.db.user.RUnlock()
	for _, id := range ids {
		if usr, ok := repo.db.user.table[id]; ok {
			s.Participants = append(s.Participants, session.Participant{ID: usr.ID, Name: usr.Name, Email: usr.Email})
		}
	}
	return s
}

func (repo *sessionRepository) CreateSession(_ context.Context, s session.Session) (session.Session, error) {
	repo.db.session.Lock()
	defer repo.db.session.Unlock()

	s.ID = uuid.New().String()
	stored := s
	repo.db.session.table[s.ID] = &stored
	return s, nil
}

func (repo *sessionRepository) QuerySessions(_ context.Context) ([]session.Session, error) {
	repo.db.session.RLock()
	sessions := make([]session.Session, 0, len(repo.db.session.table))
	for _, s := range repo.db.session.table {
		sessions = append(sessions, *s)
	}
	repo.db.session.RUnlock()

	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Date.After(sessions[j].Date) })
	for i := range sessions {
		sessions[i] = repo.resolve(sessions[i])
	}
	return sessions, nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (session.Session, error) {
	repo.db.session.RLock()
	s, ok := repo.db.session.table[id]
	repo.db.session.RUnlock()

	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return repo.resolve(*s), nil
}

func (repo *sessionRepository) QueryParticipations(_ context.Context, sessionID string) ([]session.Participation, error) {
	repo.db.participation.RLock()
	parts := make([]session.Participation, 0)
	for _, p := range repo.db.participation.table {
		if p.SessionID == sessionID {
			parts = append(parts, *p)
		}
	}
	repo.db.participation.RUnlock()

	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].PointsAwarded != parts[j].PointsAwarded {
			return parts[i].PointsAwarded > parts[j].PointsAwarded
		}
		return parts[i].CreatedAt.Before(parts[j].CreatedAt)
	})
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()
	for i := range parts {
		if usr, ok := repo.db.user.table[parts[i].UserID]; ok {
			parts[i].UserName = usr.Name
			parts[i].UserEmail = usr.Email
		}
		if awarder, ok := repo.db.user.table[parts[i].AwardedBy]; ok {
			parts[i].AwardedByName = awarder.Name
		}
	}
	return parts, nil
}

func (repo *sessionRepository) AddParticipant(_ context.Context, sessionID, userID string, _ ...core.DBExecutor) (bool, error) {
	repo.db.participant.Lock()
	defer repo.db.participant.Unlock()

	for _, id := range repo.db.participant.table[sessionID] {
		if id == userID {
			return false, nil
		}
	}
	repo.db.participant.table[sessionID] = append(repo.db.participant.table[sessionID], userID)
	return true, nil
}

func (repo *sessionRepository) EnsureParticipation(_ context.Context, sessionID, userID string, _ ...core.DBExecutor) error {
	repo.db.participation.Lock()
	defer repo.db.participation.Unlock()

	key := sessionID + "/" + userID
	if _, ok := repo.db.participation.table[key]; ok {
		return nil
	}
	repo.db.participation.seq++
	repo.db.participation.table[key] = &session.Participation{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC().Add(time.Duration(repo.db.participation.seq)), // seq ns keeps insertion order stable
	}
	return nil
}

func (repo *sessionRepository) UpsertAward(
	_ context.Context,
	aw session.PointsAward,
	awardedBy string,
	awardedAt time.Time,
	_ ...core.DBExecutor,
) (session.Participation, error) {
	repo.db.participation.Lock()
	defer repo.db.participation.Unlock()

	key := aw.SessionID + "/" + aw.UserID
	p, ok := repo.db.participation.table[key]
	if !ok {
		repo.db.participation.seq++
		p = &session.Participation{
			ID:        uuid.New().String(),
			SessionID: aw.SessionID,
			UserID:    aw.UserID,
			CreatedAt: awardedAt.Add(time.Duration(repo.db.participation.seq)),
		}
		repo.db.participation.table[key] = p
	}
	p.PointsAwarded += aw.Points
	p.AwardedBy = awardedBy
	p.AwardedAt = awardedAt

	out := *p
	repo.db.user.RLock()
	if usr, ok := repo.db.user.table[out.UserID]; ok {
		out.UserName = usr.Name
		out.UserEmail = usr.Email
	}
	repo.db.user.RUnlock()
	out.AwardedByName = repo.userName(out.AwardedBy)
	return out, nil
}

func (repo *sessionRepository) IncrementUserPoints(_ context.Context, userID string, points int, _ ...core.DBExecutor) error {
	repo.db.user.Lock()
	defer repo.db.user.Unlock()

	usr, ok := repo.db.user.table[userID]
	if !ok {
		return session.ErrUserNotFound
	}
	usr.TotalPoints += points
	return nil
}

func (repo *sessionRepository) DeleteParticipations(_ context.Context, sessionID string, _ ...core.DBExecutor) error {
	repo.db.participation.Lock()
	defer repo.db.participation.Unlock()

	for key, p := range repo.db.participation.table {
		if p.SessionID == sessionID {
			delete(repo.db.participation.table, key)
		}
	}
	return nil
}

func (repo *sessionRepository) DeleteParticipants(_ context.Context, sessionID string, _ ...core.DBExecutor) error {
	repo.db.participant.Lock()
	defer repo.db.participant.Unlock()

	delete(repo.db.participant.table, sessionID)
	return nil
}

func (repo *sessionRepository) DeleteSession(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.session.Lock()
	defer repo.db.session.Unlock()

	delete(repo.db.session.table, id)
	return nil
}
