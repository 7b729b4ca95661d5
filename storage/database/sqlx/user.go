package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/roboclub/backend/core/user"
)

const uniqueViolation = "23505"

type userRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	Image        null.String `db:"image"`
	Role         string      `db:"role"`
	TotalPoints  int         `db:"total_points"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Image:        r.Image.String,
		Role:         r.Role,
		TotalPoints:  r.TotalPoints,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1)`, email)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO "user" (id, name, email, image, role, total_points, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		usr.ID, usr.Name, usr.Email, null.NewString(usr.Image, usr.Image != ""), usr.Role,
		usr.TotalPoints, null.BytesFrom(usr.PasswordHash), usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	// total_points is left out of the update set so a promoted user keeps
	// their accumulated points.
	err := repo.db.QueryRowContext(ctx,
		`INSERT INTO "user" (id, name, email, image, role, total_points, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (email) DO UPDATE
		 SET name          = EXCLUDED.name,
		     role          = EXCLUDED.role,
		     password_hash = EXCLUDED.password_hash,
		     updated_at    = EXCLUDED.updated_at
		 RETURNING id`,
		usr.ID, usr.Name, usr.Email, null.NewString(usr.Image, usr.Image != ""), usr.Role,
		usr.TotalPoints, null.BytesFrom(usr.PasswordHash), usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "upserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, id)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE email = $1`, email)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by email")
	}
	return row.toUser(), nil
}

func (repo userRepository) QueryLeaderboard(ctx context.Context, limit int) ([]user.LeaderboardEntry, error) {
	entries := make([]user.LeaderboardEntry, 0, limit)
	err := repo.db.SelectContext(ctx, &entries,
		`SELECT id, name, email, total_points FROM "user"
		 WHERE role = $1
		 ORDER BY total_points DESC
		 LIMIT $2`,
		user.RoleStudent, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying leaderboard")
	}
	return entries, nil
}

// trapNoRowsErr maps psql "no rows" to the domain's not-found error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
