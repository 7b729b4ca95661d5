package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/roboclub/backend/core/user"
)

func Test_userApi_register(t *testing.T) {
	app := setup(t)
	createUser(t, "Taken", "taken@club.io", "", user.RoleStudent)

	body := func(name, email, pwd string) []byte {
		return marchallObj(t, map[string]string{
			"name":             name,
			"email":            email,
			"password":         pwd,
			"password_confirm": pwd,
		})
	}

	t.Run("created", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body("Ada Lovelace", "ada@club.io", "machine$Futures1"))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if usr.Role != user.RoleStudent {
			t.Errorf("role = %q; want %q", usr.Role, user.RoleStudent)
		}
		if usr.TotalPoints != 0 {
			t.Errorf("totalPoints = %d; want 0", usr.TotalPoints)
		}
		if usr.ID == "" {
			t.Error("response carries no ID")
		}
	})

	errTests := []httpTest{
		{
			name: "duplicate email", method: http.MethodPost, path: "/v1/users/register",
			body:     body("Imposter", "taken@club.io", "machine$Futures1"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/users/register",
			body:     body("Weak", "weak@club.io", "shrt#1"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	createUser(t, "Ada Lovelace", "ada@club.io", "machine$Futures1", user.RoleStudent)

	body := func(email, pwd string) []byte {
		return marchallObj(t, map[string]string{"email": email, "password": pwd})
	}

	t.Run("ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body("ada@club.io", "machine$Futures1"))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Token == "" {
			t.Error("response carries no token")
		}
	})

	failed := marchallObj(t, httpErr{Error: "authentication failed"})
	errTests := []httpTest{
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body: body("ada@club.io", "nope"), wantCode: http.StatusBadRequest, wantData: failed,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/login",
			body: body("ghost@club.io", "machine$Futures1"), wantCode: http.StatusBadRequest, wantData: failed,
		},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	usr := createUser(t, "Ada Lovelace", "ada@club.io", "", user.RoleStudent)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/users/me",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "ok", method: http.MethodGet, path: "/v1/users/me", token: getToken(t, usr),
			wantCode: http.StatusOK, wantData: marchallObj(t, usr),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := setup(t)
	usr := createUser(t, "Ada Lovelace", "ada@club.io", "", user.RoleStudent)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if resp.Token == "" {
		t.Error("response carries no token")
	}
}

func Test_userApi_leaderboard(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	low := createUser(t, "Low", "low@club.io", "", user.RoleStudent)
	high := createUser(t, "High", "high@club.io", "", user.RoleStudent)
	createUser(t, "Mentor", "mentor@club.io", "", user.RoleMentor)

	for _, aw := range []struct {
		usr    user.User
		points int
	}{{low, 5}, {high, 80}} {
		if err := sessRepo.IncrementUserPoints(ctx, aw.usr.ID, aw.points); err != nil {
			t.Fatalf("IncrementUserPoints() failed: %v", err)
		}
	}

	tt := httpTest{
		name: "top students only, highest first", method: http.MethodGet, path: "/v1/leaderboard",
		wantCode: http.StatusOK,
		wantData: marchallList(t,
			user.LeaderboardEntry{ID: high.ID, Name: high.Name, Email: high.Email, TotalPoints: 80},
			user.LeaderboardEntry{ID: low.ID, Name: low.Name, Email: low.Email, TotalPoints: 5},
		),
	}
	req, rec := newRequest(tt.method, tt.path)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}
