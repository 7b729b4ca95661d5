package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/session"
	"github.com/roboclub/backend/core/user"
	dummydb "github.com/roboclub/backend/storage/database/dummy"
)

type testEnv struct {
	svc      session.ServiceInterface
	repo     session.Repository
	usrRepo  user.Repository
	db       *dummydb.DB
	mentor   user.User
	student  user.User
	student2 user.User
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := dummydb.NewSessionRepository(db)
	usrRepo := dummydb.NewUserRepository(db)
	env := &testEnv{
		svc:     session.NewService(db, repo),
		repo:    repo,
		usrRepo: usrRepo,
		db:      db,
	}
	env.mentor = env.createUser(t, "Mentor One", "mentor@club.io", user.RoleMentor)
	env.student = env.createUser(t, "Student One", "student1@club.io", user.RoleStudent)
	env.student2 = env.createUser(t, "Student Two", "student2@club.io", user.RoleStudent)
	return env
}

func (env *testEnv) createUser(t *testing.T, name, email, role string) user.User {
	t.Helper()

	usr, err := env.usrRepo.CreateUser(context.Background(), user.User{Name: name, Email: email, Role: role})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (env *testEnv) createSession(t *testing.T, creator user.User, title string) session.Session {
	t.Helper()

	s, err := env.svc.Create(context.Background(), creator, session.NewSession{
		Title: title,
		Date:  time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("createSession() failed: %v", err)
	}
	return s
}

func (env *testEnv) totalPoints(t *testing.T, usr user.User) int {
	t.Helper()

	got, err := env.usrRepo.GetUserByID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("totalPoints() failed: %v", err)
	}
	return got.TotalPoints
}

func TestService_Create(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, env.student, session.NewSession{Title: "Nope", Date: time.Now()}); err != session.ErrNotMentor {
		t.Errorf("Create() err = %v; want %v", err, session.ErrNotMentor)
	}

	s := env.createSession(t, env.mentor, "Line followers 101")
	if s.CreatedBy != env.mentor.ID {
		t.Errorf("Create() createdBy = %v; want %v", s.CreatedBy, env.mentor.ID)
	}
	if s.CreatedByName != env.mentor.Name {
		t.Errorf("Create() createdByName = %q; want %q", s.CreatedByName, env.mentor.Name)
	}
	if len(s.Participants) != 0 {
		t.Errorf("Create() roster = %v; want empty", s.Participants)
	}
}

func TestService_Query_ordersByDateDesc(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	mk := func(title string, daysAhead int) session.Session {
		s, err := env.svc.Create(ctx, env.mentor, session.NewSession{
			Title: title,
			Date:  time.Now().Add(time.Duration(daysAhead) * 24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		return s
	}
	old := mk("Old", 1)
	newest := mk("Newest", 7)
	mid := mk("Mid", 3)

	sessions, err := env.svc.Query(ctx)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	wantOrder := []string{newest.ID, mid.ID, old.ID}
	if len(sessions) != len(wantOrder) {
		t.Fatalf("Query() returned %d sessions; want %d", len(sessions), len(wantOrder))
	}
	for i, want := range wantOrder {
		if sessions[i].ID != want {
			t.Errorf("Query()[%d].ID = %v; want %v", i, sessions[i].ID, want)
		}
	}
}

func TestService_Join(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	s := env.createSession(t, env.mentor, "Soldering workshop")

	if err := env.svc.Join(ctx, "2b1f8d3e-0000-0000-0000-000000000000", env.student); err != session.ErrNotFound {
		t.Errorf("Join() err = %v; want %v", err, session.ErrNotFound)
	}

	if err := env.svc.Join(ctx, s.ID, env.student); err != nil {
		t.Fatalf("Join() failed: %v", err)
	}

	detail, err := env.svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(detail.Session.Participants) != 1 || detail.Session.Participants[0].ID != env.student.ID {
		t.Errorf("Join() roster = %+v; want just the student", detail.Session.Participants)
	}
	if len(detail.Participations) != 1 {
		t.Fatalf("Join() ledger rows = %d; want 1", len(detail.Participations))
	}
	if p := detail.Participations[0]; p.PointsAwarded != 0 || p.UserID != env.student.ID {
		t.Errorf("Join() ledger row = %+v; want a zero-point row for the student", p)
	}
	if got := env.totalPoints(t, env.student); got != 0 {
		t.Errorf("Join() totalPoints = %d; want 0", got)
	}

	// joining twice is rejected, and nothing is duplicated
	if err = env.svc.Join(ctx, s.ID, env.student); err != session.ErrAlreadyJoined {
		t.Errorf("Join() err = %v; want %v", err, session.ErrAlreadyJoined)
	}
	detail, err = env.svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(detail.Session.Participants) != 1 || len(detail.Participations) != 1 {
		t.Errorf("Join() duplicated state: roster = %d, ledger = %d; want 1 and 1",
			len(detail.Session.Participants), len(detail.Participations))
	}
}

func TestService_AwardPoints(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	s := env.createSession(t, env.mentor, "Sensor calibration")

	if err := env.svc.Join(ctx, s.ID, env.student); err != nil {
		t.Fatalf("Join() failed: %v", err)
	}

	award := func(points int) (session.Participation, error) {
		return env.svc.AwardPoints(ctx, env.mentor, session.PointsAward{
			SessionID: s.ID,
			UserID:    env.student.ID,
			Points:    points,
		})
	}

	p, err := award(10)
	if err != nil {
		t.Fatalf("AwardPoints() failed: %v", err)
	}
	if p.PointsAwarded != 10 {
		t.Errorf("AwardPoints() points = %d; want 10", p.PointsAwarded)
	}
	if p.AwardedBy != env.mentor.ID {
		t.Errorf("AwardPoints() awardedBy = %v; want %v", p.AwardedBy, env.mentor.ID)
	}
	// the returned row carries resolved names, not bare IDs
	if p.UserName != env.student.Name || p.UserEmail != env.student.Email {
		t.Errorf("AwardPoints() user = %q <%s>; want %q <%s>", p.UserName, p.UserEmail, env.student.Name, env.student.Email)
	}
	if p.AwardedByName != env.mentor.Name {
		t.Errorf("AwardPoints() awardedByName = %q; want %q", p.AwardedByName, env.mentor.Name)
	}

	// awards accumulate on the same ledger row, and the user total matches
	p, err = award(15)
	if err != nil {
		t.Fatalf("AwardPoints() failed: %v", err)
	}
	if p.PointsAwarded != 25 {
		t.Errorf("AwardPoints() points = %d; want 25", p.PointsAwarded)
	}
	if got := env.totalPoints(t, env.student); got != 25 {
		t.Errorf("AwardPoints() totalPoints = %d; want 25", got)
	}
	detail, err := env.svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(detail.Participations) != 1 {
		t.Errorf("AwardPoints() ledger rows = %d; want 1", len(detail.Participations))
	}

	// awarding a student who never joined creates their ledger row
	p, err = env.svc.AwardPoints(ctx, env.mentor, session.PointsAward{
		SessionID: s.ID,
		UserID:    env.student2.ID,
		Points:    40,
	})
	if err != nil {
		t.Fatalf("AwardPoints() failed: %v", err)
	}
	if p.PointsAwarded != 40 {
		t.Errorf("AwardPoints() points = %d; want 40", p.PointsAwarded)
	}
	if got := env.totalPoints(t, env.student2); got != 40 {
		t.Errorf("AwardPoints() totalPoints = %d; want 40", got)
	}

	// ledger is sorted highest points first
	detail, err = env.svc.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(detail.Participations) != 2 || detail.Participations[0].UserID != env.student2.ID {
		t.Errorf("Get() ledger = %+v; want student2 first", detail.Participations)
	}
}

func TestService_AwardPoints_authorization(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	s := env.createSession(t, env.mentor, "Autonomy basics")
	otherMentor := env.createUser(t, "Mentor Two", "mentor2@club.io", user.RoleMentor)

	aw := session.PointsAward{SessionID: s.ID, UserID: env.student.ID, Points: 10}

	if _, err := env.svc.AwardPoints(ctx, env.student, aw); err != session.ErrNotMentor {
		t.Errorf("AwardPoints() err = %v; want %v", err, session.ErrNotMentor)
	}
	if _, err := env.svc.AwardPoints(ctx, otherMentor, aw); err != session.ErrNotOwner {
		t.Errorf("AwardPoints() err = %v; want %v", err, session.ErrNotOwner)
	}

	for _, points := range []int{0, -5, 101} {
		_, err := env.svc.AwardPoints(ctx, env.mentor, session.PointsAward{
			SessionID: s.ID,
			UserID:    env.student.ID,
			Points:    points,
		})
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("AwardPoints(%d) err = %v; want a validation error", points, err)
		}
	}

	// unknown target user
	aw.UserID = "4f4f0000-0000-0000-0000-000000000000"
	if _, err := env.svc.AwardPoints(ctx, env.mentor, aw); err != session.ErrUserNotFound {
		t.Errorf("AwardPoints() err = %v; want %v", err, session.ErrUserNotFound)
	}

	// a failed award leaves no trace
	if got := env.totalPoints(t, env.student); got != 0 {
		t.Errorf("totalPoints = %d; want 0", got)
	}
}

func TestService_Delete(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	s := env.createSession(t, env.mentor, "Chassis build")
	otherMentor := env.createUser(t, "Mentor Two", "mentor2@club.io", user.RoleMentor)

	if err := env.svc.Join(ctx, s.ID, env.student); err != nil {
		t.Fatalf("Join() failed: %v", err)
	}
	if _, err := env.svc.AwardPoints(ctx, env.mentor, session.PointsAward{
		SessionID: s.ID,
		UserID:    env.student.ID,
		Points:    30,
	}); err != nil {
		t.Fatalf("AwardPoints() failed: %v", err)
	}

	if err := env.svc.Delete(ctx, s.ID, env.student); err != session.ErrNotOwner {
		t.Errorf("Delete() err = %v; want %v", err, session.ErrNotOwner)
	}
	if err := env.svc.Delete(ctx, s.ID, otherMentor); err != session.ErrNotOwner {
		t.Errorf("Delete() err = %v; want %v", err, session.ErrNotOwner)
	}

	if err := env.svc.Delete(ctx, s.ID, env.mentor); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := env.svc.Get(ctx, s.ID); err != session.ErrNotFound {
		t.Errorf("Get() err = %v; want %v", err, session.ErrNotFound)
	}
	parts, err := env.repo.QueryParticipations(ctx, s.ID)
	if err != nil {
		t.Fatalf("QueryParticipations() failed: %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("Delete() left %d ledger rows behind", len(parts))
	}

	// earned points survive the session's deletion
	if got := env.totalPoints(t, env.student); got != 30 {
		t.Errorf("totalPoints = %d; want 30", got)
	}

	if err = env.svc.Delete(ctx, s.ID, env.mentor); err != session.ErrNotFound {
		t.Errorf("Delete() err = %v; want %v", err, session.ErrNotFound)
	}
}
