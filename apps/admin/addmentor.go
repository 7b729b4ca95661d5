package main

import (
	"context"
	"time"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/user"
)

// addMentor creates a mentor account, or promotes the existing account
// registered under the email. Accumulated points survive a promotion.
func (cli *commandLine) addMentor(name, email, pwd string) error {
	ctx := context.Background()
	now := time.Now().UTC()

	usr := user.User{
		Name:      core.CleanString(name),
		Email:     core.CleanString(email, true /* lower */),
		Role:      user.RoleMentor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
