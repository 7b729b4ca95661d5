package session

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/user"
)

const (
	minPoints = 1
	maxPoints = 100
)

var (
	// errors
	ErrNotFound      = errors.New("session not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyJoined = errors.New("already joined this session")
	ErrNotMentor     = errors.New("only mentors may perform this action")
	ErrNotOwner      = errors.New("only the session's creator may perform this action")

	errPointsOutOfRange = errors.New("points must be between 1 and 100")
)

type (
	Repository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		// QuerySessions returns all sessions with creator and roster names
		// resolved, most recent date first.
		QuerySessions(ctx context.Context) ([]Session, error)
		GetSession(ctx context.Context, id string) (Session, error)
		// QueryParticipations returns a session's ledger rows with user/awarder
		// names resolved, highest points first (insertion order on ties).
		QueryParticipations(ctx context.Context, sessionID string) ([]Participation, error)

		// AddParticipant atomically adds the user to the roster; reports false
		// when the user was already present.
		AddParticipant(ctx context.Context, sessionID, userID string, exec ...core.DBExecutor) (bool, error)
		// EnsureParticipation creates the zero-point ledger row if absent.
		EnsureParticipation(ctx context.Context, sessionID, userID string, exec ...core.DBExecutor) error

		// UpsertAward find-or-creates the (session, user) ledger row and
		// atomically increments its points, stamping the awarding mentor.
		UpsertAward(ctx context.Context, aw PointsAward, awardedBy string, awardedAt time.Time, exec ...core.DBExecutor) (Participation, error)
		// IncrementUserPoints atomically bumps the user's cumulative total.
		// Returns ErrUserNotFound when the user does not exist.
		IncrementUserPoints(ctx context.Context, userID string, points int, exec ...core.DBExecutor) error

		// DeleteSession removes the session, its roster entries and all its
		// ledger rows. Ledger rows go first so a partial failure can never
		// leave them dangling.
		DeleteParticipations(ctx context.Context, sessionID string, exec ...core.DBExecutor) error
		DeleteParticipants(ctx context.Context, sessionID string, exec ...core.DBExecutor) error
		DeleteSession(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, actor user.User, ns NewSession) (Session, error)
		Query(ctx context.Context) ([]Session, error)
		Get(ctx context.Context, id string) (Detail, error)
		Delete(ctx context.Context, id string, actor user.User) error
		Join(ctx context.Context, id string, actor user.User) error
		AwardPoints(ctx context.Context, actor user.User, aw PointsAward) (Participation, error)
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository) *service {
	return &service{
		db:   db,
		repo: repo,
	}
}

func (svc *service) Create(ctx context.Context, actor user.User, ns NewSession) (Session, error) {
	if !actor.IsMentor() {
		return Session{}, ErrNotMentor
	}
	s := Session{
		Title:       ns.Title,
		Description: ns.Description,
		Date:        ns.Date.UTC(),
		CreatedBy:   actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	s, err := svc.repo.CreateSession(ctx, s)
	if err != nil {
		return Session{}, err
	}
	return svc.repo.GetSession(ctx, s.ID)
}

func (svc *service) Query(ctx context.Context) ([]Session, error) {
	return svc.repo.QuerySessions(ctx)
}

func (svc *service) Get(ctx context.Context, id string) (Detail, error) {
	s, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	parts, err := svc.repo.QueryParticipations(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Session: s, Participations: parts}, nil
}

// Delete removes the session and cascades to its ledger as one unit of work.
func (svc *service) Delete(ctx context.Context, id string, actor user.User) error {
	s, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsMentor() || s.CreatedBy != actor.ID {
		return ErrNotOwner
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "beginning delete tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err = svc.repo.DeleteParticipations(ctx, id, tx); err != nil {
		return err
	}
	if err = svc.repo.DeleteParticipants(ctx, id, tx); err != nil {
		return err
	}
	if err = svc.repo.DeleteSession(ctx, id, tx); err != nil {
		return err
	}
	return pkgerrors.Wrap(tx.Commit(), "committing delete tx")
}

// Join adds the caller to the roster and creates the zero-point ledger row.
// Both writes are conflict-safe and run in one transaction, so a duplicate
// submission or a retry after a crash is idempotent.
func (svc *service) Join(ctx context.Context, id string, actor user.User) error {
	if _, err := svc.repo.GetSession(ctx, id); err != nil {
		return err
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "beginning join tx")
	}
	defer func() { _ = tx.Rollback() }()

	added, err := svc.repo.AddParticipant(ctx, id, actor.ID, tx)
	if err != nil {
		return err
	}
	if !added {
		return ErrAlreadyJoined
	}
	if err = svc.repo.EnsureParticipation(ctx, id, actor.ID, tx); err != nil {
		return err
	}
	return pkgerrors.Wrap(tx.Commit(), "committing join tx")
}

// AwardPoints increments the (session, user) ledger row and the user's
// cumulative total by the same delta. Both updates are atomic increments
// inside one transaction; concurrent awards all accumulate.
func (svc *service) AwardPoints(ctx context.Context, actor user.User, aw PointsAward) (Participation, error) {
	if aw.Points < minPoints || aw.Points > maxPoints {
		return Participation{}, core.NewValidationError(errPointsOutOfRange,
			core.FieldError{Field: "points", Error: errPointsOutOfRange.Error()})
	}
	if !actor.IsMentor() {
		return Participation{}, ErrNotMentor
	}
	s, err := svc.repo.GetSession(ctx, aw.SessionID)
	if err != nil {
		return Participation{}, err
	}
	if s.CreatedBy != actor.ID {
		return Participation{}, ErrNotOwner
	}

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Participation{}, pkgerrors.Wrap(err, "beginning award tx")
	}
	defer func() { _ = tx.Rollback() }()

	// bump the user total first: it reports a missing user cleanly,
	// before the ledger upsert could trip its foreign key
	if err = svc.repo.IncrementUserPoints(ctx, aw.UserID, aw.Points, tx); err != nil {
		return Participation{}, err
	}
	p, err := svc.repo.UpsertAward(ctx, aw, actor.ID, time.Now().UTC(), tx)
	if err != nil {
		return Participation{}, err
	}
	if err = tx.Commit(); err != nil {
		return Participation{}, pkgerrors.Wrap(err, "committing award tx")
	}
	return p, nil
}
