package main

import (
	"context"
	"fmt"

	"github.com/trezcool/appraise/core/user"
)

// runAddUser creates a user on behalf of the logged in admin.
func (cli *commandLine) runAddUser(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("adduser")
	firstname := fs.String("firstname", "", "First name.")
	lastname := fs.String("lastname", "", "Last name.")
	email := fs.String("email", "", "Email. The password and its confirmation will be prompted next.")
	role := fs.String("role", user.RoleAdmin, "One of SUPER_ADMIN, ADMIN, LECTURER, VISITOR.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}

	sess, err := cli.requireSession()
	if err != nil {
		return err
	}

	pwd, err := cli.promptPassword("Enter password:")
	if err != nil {
		return err
	}
	confirm, err := cli.promptPassword("Confirm password:")
	if err != nil {
		return err
	}

	usr, err := cli.usrSvc.Create(ctx, *sess.User, sess.Token, user.NewUser{
		Firstname:       *firstname,
		Lastname:        *lastname,
		Email:           *email,
		Role:            *role,
		Password:        pwd,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Created %s <%s> (%s)\n", usr.FullName(), usr.Email, usr.Role)
	return nil
}
