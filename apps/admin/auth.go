package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/appraise/core/session"
	"github.com/trezcool/appraise/core/user"
)

func (cli *commandLine) runLogin(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("login")
	email := fs.String("email", "", "The admin's email. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.promptPassword("Enter password:")
	if err != nil {
		return err
	}

	resp, err := cli.authSvc.Login(ctx, user.Credentials{Email: *email, Password: pwd})
	if err != nil {
		return err
	}
	cli.printWelcome(resp)
	return nil
}

func (cli *commandLine) runVisitor(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("visitor")
	matNo := fs.String("matno", "", "The visitor's matriculation number, eg. AG101.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *matNo == "" {
		fs.Usage()
		return errHelp
	}

	resp, err := cli.authSvc.Visit(ctx, user.Visitor{MatNo: *matNo})
	if err != nil {
		return err
	}
	cli.printWelcome(resp)
	return nil
}

func (cli *commandLine) runRegister(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("register")
	firstname := fs.String("firstname", "", "First name.")
	lastname := fs.String("lastname", "", "Last name.")
	email := fs.String("email", "", "Email. The password and its confirmation will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.promptPassword("Enter password:")
	if err != nil {
		return err
	}
	confirm, err := cli.promptPassword("Confirm password:")
	if err != nil {
		return err
	}

	resp, err := cli.authSvc.Register(ctx, user.Registration{
		Firstname:       *firstname,
		Lastname:        *lastname,
		Email:           *email,
		Password:        pwd,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}
	cli.printWelcome(resp)
	return nil
}

func (cli *commandLine) printWelcome(resp user.AuthResponse) {
	if resp.Message != "" {
		fmt.Fprintln(cli.out, resp.Message)
	}
	fmt.Fprintf(cli.out, "Logged in as %s (%s)\n", resp.User.FullName(), resp.User.Role)
}

func (cli *commandLine) whoami() error {
	sess, err := cli.requireSession()
	if err != nil {
		return err
	}
	usr := sess.User
	fmt.Fprintf(cli.out, "%s <%s> %s\n", usr.FullName(), usr.Email, usr.Role)
	if exp, ok := session.TokenExpiry(sess.Token); ok {
		fmt.Fprintf(cli.out, "Session expires in %s\n", exp.Sub(cli.now()).Round(time.Second))
	}
	return nil
}
