package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/roboclub/backend/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.table {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.table {
		if u.Email == usr.Email {
			u.Name = usr.Name
			u.Role = usr.Role
			u.PasswordHash = usr.PasswordHash
			u.UpdatedAt = usr.UpdatedAt
			return *u, nil
		}
	}
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryLeaderboard(_ context.Context, limit int) ([]user.LeaderboardEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]user.LeaderboardEntry, 0, len(repo.db.table))
	for _, usr := range repo.db.table {
		if !usr.IsStudent() {
			continue
		}
		entries = append(entries, user.LeaderboardEntry{
			ID:          usr.ID,
			Name:        usr.Name,
			Email:       usr.Email,
			TotalPoints: usr.TotalPoints,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].TotalPoints > entries[j].TotalPoints })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
