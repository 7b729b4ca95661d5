package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/user"
)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func hasFieldError(err error, field, tag string) bool {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	for _, vErr := range vErrs {
		if vErr.Field() == field && vErr.Tag() == tag {
			return true
		}
	}
	return false
}

func TestNewUser_Validate_passwordPolicy(t *testing.T) {
	validate := newValidator(t)
	svc, _, _ := setup(t)
	ctx := context.Background()

	newUser := func(pwd string) user.NewUser {
		return user.NewUser{
			Name:            "Ada Lovelace",
			Email:           "ada@club.io",
			Password:        pwd,
			PasswordConfirm: pwd,
		}
	}

	tests := []struct {
		name    string
		nu      user.NewUser
		wantTag string // on "password" unless wantField set
	}{
		{name: "ok", nu: newUser("machine$Futures1")},
		{name: "too short", nu: newUser("pass1#"), wantTag: "pwdminlen"},
		{name: "whitespace", nu: newUser("pass word#1"), wantTag: "pwdnospace"},
		{name: "all numeric", nu: newUser("20260901345"), wantTag: "pwdnotallnum"},
		{name: "too similar to email", nu: newUser("ada@club.io"), wantTag: "pwdtoosim"},
		{name: "too similar to name", nu: newUser("adaLovelace"), wantTag: "pwdtoosim"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(ctx, validate, svc)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("Validate() failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected an error")
			}
			if !hasFieldError(err, "password", tt.wantTag) {
				t.Errorf("Validate() err = %v; want tag %q on password", err, tt.wantTag)
			}
		})
	}
}

func TestNewUser_Validate_confirmMismatch(t *testing.T) {
	validate := newValidator(t)
	svc, _, _ := setup(t)

	nu := user.NewUser{
		Name:            "Ada Lovelace",
		Email:           "ada@club.io",
		Password:        "machine$Futures1",
		PasswordConfirm: "machine$Futures2",
	}
	err := nu.Validate(context.Background(), validate, svc)
	if err == nil {
		t.Fatal("Validate() expected an error")
	}
	if !hasFieldError(err, "password_confirm", "eqfield") {
		t.Errorf("Validate() err = %v; want eqfield on password_confirm", err)
	}
}

func TestNewUser_Validate_duplicateEmail(t *testing.T) {
	validate := newValidator(t)
	svc, repo, _ := setup(t)

	createUser(t, repo, "Ada Lovelace", "ada@club.io", "", user.RoleStudent)

	nu := user.NewUser{
		Name:            "Ada Again",
		Email:           "ADA@club.io",
		Password:        "machine$Futures1",
		PasswordConfirm: "machine$Futures1",
	}
	err := nu.Validate(context.Background(), validate, svc)
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("Validate() err = %v; want *core.ValidationError", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" {
		t.Errorf("Validate() fields = %+v; want a single email error", vErr.Fields)
	}
}
