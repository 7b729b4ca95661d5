package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/session"
)

type (
	sessionRow struct {
		ID            string      `db:"id"`
		Title         string      `db:"title"`
		Description   null.String `db:"description"`
		Date          time.Time   `db:"date"`
		CreatedBy     string      `db:"created_by"`
		CreatedByName string      `db:"created_by_name"`
		CreatedAt     time.Time   `db:"created_at"`
	}

	participantRow struct {
		SessionID string `db:"session_id"`
		ID        string `db:"id"`
		Name      string `db:"name"`
		Email     string `db:"email"`
	}

	participationRow struct {
		ID            string      `db:"id"`
		SessionID     string      `db:"session_id"`
		UserID        string      `db:"user_id"`
		UserName      string      `db:"user_name"`
		UserEmail     string      `db:"user_email"`
		PointsAwarded int         `db:"points_awarded"`
		AwardedBy     null.String `db:"awarded_by"`
		AwardedByName null.String `db:"awarded_by_name"`
		AwardedAt     null.Time   `db:"awarded_at"`
		CreatedAt     time.Time   `db:"created_at"`
	}
)

func (r sessionRow) toSession() session.Session {
	return session.Session{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description.String,
		Date:          r.Date,
		CreatedBy:     r.CreatedBy,
		CreatedByName: r.CreatedByName,
		Participants:  []session.Participant{},
		CreatedAt:     r.CreatedAt,
	}
}

func (r participationRow) toParticipation() session.Participation {
	return session.Participation{
		ID:            r.ID,
		SessionID:     r.SessionID,
		UserID:        r.UserID,
		UserName:      r.UserName,
		UserEmail:     r.UserEmail,
		PointsAwarded: r.PointsAwarded,
		AwardedBy:     r.AwardedBy.String,
		AwardedByName: r.AwardedByName.String,
		AwardedAt:     r.AwardedAt.Time,
		CreatedAt:     r.CreatedAt,
	}
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo sessionRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

func (repo sessionRepository) CreateSession(ctx context.Context, s session.Session) (session.Session, error) {
	s.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO session (id, title, description, date, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Title, null.NewString(s.Description, s.Description != ""), s.Date, s.CreatedBy, s.CreatedAt,
	)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

const sessionSelect = `
SELECT s.id, s.title, s.description, s.date, s.created_by, u.name AS created_by_name, s.created_at
FROM session s
JOIN "user" u ON u.id = s.created_by`

// upcoming sessions first
var sessionOrdering = core.DBOrdering{Field: "s.date"}

func (repo sessionRepository) QuerySessions(ctx context.Context) ([]session.Session, error) {
	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, sessionSelect+` ORDER BY `+sessionOrdering.String()); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}

	sessions := make([]session.Session, 0, len(rows))
	index := make(map[string]int, len(rows))
	ids := make([]string, 0, len(rows))
	for i, r := range rows {
		sessions = append(sessions, r.toSession())
		index[r.ID] = i
		ids = append(ids, r.ID)
	}
	if len(ids) == 0 {
		return sessions, nil
	}

	// resolve rosters in one pass
	query, args, err := sqlx.In(
		`SELECT sp.session_id, u.id, u.name, u.email
		 FROM session_participant sp
		 JOIN "user" u ON u.id = sp.user_id
		 WHERE sp.session_id IN (?)
		 ORDER BY sp.joined_at`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building roster query")
	}
	var parts []participantRow
	if err = repo.db.SelectContext(ctx, &parts, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying rosters")
	}
	for _, p := range parts {
		i := index[p.SessionID]
		sessions[i].Participants = append(sessions[i].Participants, session.Participant{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	return sessions, nil
}

func (repo sessionRepository) GetSession(ctx context.Context, id string) (session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return session.Session{}, session.ErrNotFound
	}
	var row sessionRow
	if err := repo.db.GetContext(ctx, &row, sessionSelect+` WHERE s.id = $1`, id); err != nil {
		return session.Session{}, trapNoRowsErr(err, session.ErrNotFound, "finding session")
	}
	s := row.toSession()

	var parts []participantRow
	err := repo.db.SelectContext(ctx, &parts,
		`SELECT sp.session_id, u.id, u.name, u.email
		 FROM session_participant sp
		 JOIN "user" u ON u.id = sp.user_id
		 WHERE sp.session_id = $1
		 ORDER BY sp.joined_at`, id)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "querying roster")
	}
	for _, p := range parts {
		s.Participants = append(s.Participants, session.Participant{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	return s, nil
}

const participationSelect = `
SELECT p.id, p.session_id, p.user_id, u.name AS user_name, u.email AS user_email,
       p.points_awarded, p.awarded_by, m.name AS awarded_by_name, p.awarded_at, p.created_at
FROM participation p
JOIN "user" u ON u.id = p.user_id
LEFT JOIN "user" m ON m.id = p.awarded_by`

func (repo sessionRepository) QueryParticipations(ctx context.Context, sessionID string) ([]session.Participation, error) {
	var rows []participationRow
	err := repo.db.SelectContext(ctx, &rows,
		participationSelect+` WHERE p.session_id = $1
		 ORDER BY p.points_awarded DESC, p.created_at`, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying participations")
	}
	parts := make([]session.Participation, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, r.toParticipation())
	}
	return parts, nil
}

func (repo sessionRepository) AddParticipant(ctx context.Context, sessionID, userID string, exec ...core.DBExecutor) (bool, error) {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO session_participant (session_id, user_id, joined_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id, user_id) DO NOTHING`,
		sessionID, userID, time.Now().UTC(),
	)
	if err != nil {
		return false, errors.Wrap(err, "adding participant")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "adding participant")
	}
	return n > 0, nil
}

func (repo sessionRepository) EnsureParticipation(ctx context.Context, sessionID, userID string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO participation (id, session_id, user_id, points_awarded, created_at)
		 VALUES ($1, $2, $3, 0, $4)
		 ON CONFLICT (session_id, user_id) DO NOTHING`,
		uuid.New().String(), sessionID, userID, time.Now().UTC(),
	)
	return errors.Wrap(err, "ensuring participation")
}

func (repo sessionRepository) UpsertAward(
	ctx context.Context,
	aw session.PointsAward,
	awardedBy string,
	awardedAt time.Time,
	exec ...core.DBExecutor,
) (session.Participation, error) {
	db := repo.getExec(exec)

	// atomic increment: the addition happens in the store, never in app code
	row := db.QueryRowContext(ctx,
		`INSERT INTO participation (id, session_id, user_id, points_awarded, awarded_by, awarded_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (session_id, user_id) DO UPDATE
		 SET points_awarded = participation.points_awarded + EXCLUDED.points_awarded,
		     awarded_by     = EXCLUDED.awarded_by,
		     awarded_at     = EXCLUDED.awarded_at
		 RETURNING id`,
		uuid.New().String(), aw.SessionID, aw.UserID, aw.Points, awardedBy, awardedAt,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		return session.Participation{}, errors.Wrap(err, "upserting award")
	}

	// re-read through the JOINs so the caller gets user/awarder names resolved
	row = db.QueryRowContext(ctx, participationSelect+` WHERE p.id = $1`, id)
	var r participationRow
	err := row.Scan(
		&r.ID, &r.SessionID, &r.UserID, &r.UserName, &r.UserEmail,
		&r.PointsAwarded, &r.AwardedBy, &r.AwardedByName, &r.AwardedAt, &r.CreatedAt,
	)
	if err != nil {
		return session.Participation{}, errors.Wrap(err, "reading awarded participation")
	}
	return r.toParticipation(), nil
}

func (repo sessionRepository) IncrementUserPoints(ctx context.Context, userID string, points int, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE "user" SET total_points = total_points + $1, updated_at = $2 WHERE id = $3`,
		points, time.Now().UTC(), userID,
	)
	if err != nil {
		return errors.Wrap(err, "incrementing user points")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "incrementing user points")
	}
	if n == 0 {
		return session.ErrUserNotFound
	}
	return nil
}

func (repo sessionRepository) DeleteParticipations(ctx context.Context, sessionID string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM participation WHERE session_id = $1`, sessionID)
	return errors.Wrap(err, "deleting participations")
}

func (repo sessionRepository) DeleteParticipants(ctx context.Context, sessionID string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM session_participant WHERE session_id = $1`, sessionID)
	return errors.Wrap(err, "deleting participants")
}

func (repo sessionRepository) DeleteSession(ctx context.Context, id string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM session WHERE id = $1`, id)
	return errors.Wrap(err, "deleting session")
}
