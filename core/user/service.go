package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/roboclub/backend/core"
)

// leaderboardLimit caps the global ranking at the top 50 students.
const leaderboardLimit = 50

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// UpdateOrCreateUser upserts on email; an existing user keeps their
		// accumulated points.
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryLeaderboard returns students ordered by total points, highest first.
		QueryLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	}

	ServiceInterface interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		FederatedLogin(ctx context.Context, fu FederatedUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Leaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register creates a new User with a hashed password.
// Role defaults to student unless explicitly provided.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.Role == "" {
		usr.Role = RoleStudent
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		// the uniqueness pre-check can lose a race with a concurrent signup;
		// the store's own conflict still renders as a field error
		if err == ErrEmailExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, err
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

// Authenticate fails closed: an unknown email, a user without a password hash
// (federated identity) and a wrong password all yield ErrInvalidCredentials.
func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if len(usr.PasswordHash) == 0 {
		return User{}, ErrInvalidCredentials
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// FederatedLogin finds or creates the User behind a provider-verified identity.
// No password path is exercised.
func (svc *service) FederatedLogin(ctx context.Context, fu FederatedUser) (User, error) {
	email := core.CleanString(fu.Email, true /* lower */)
	usr, err := svc.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return usr, nil
	}
	if err != ErrNotFound {
		return User{}, err
	}

	now := time.Now().UTC()
	usr = User{
		Name:      core.CleanString(fu.Name),
		Email:     email,
		Image:     fu.Image,
		Role:      RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err == ErrEmailExists {
		// lost a race with a concurrent login for the same identity
		return svc.repo.GetUserByEmail(ctx, email)
	}
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	return svc.repo.QueryLeaderboard(ctx, leaderboardLimit)
}

func (svc *service) sendWelcomeMail(usr User) {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Welcome to the club!",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour %s account is ready. Join a session and start earning points!\n\n%s",
			usr.Name, svc.conf.AppName, svc.conf.FrontendBaseURL,
		),
	}
	svc.mailSvc.SendMessages(msg)
}
