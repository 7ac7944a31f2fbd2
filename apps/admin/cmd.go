package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/appraisal"
	"github.com/trezcool/appraise/core/auth"
	"github.com/trezcool/appraise/core/guard"
	"github.com/trezcool/appraise/core/session"
	"github.com/trezcool/appraise/core/user"
	"github.com/trezcool/appraise/services/api"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp           = errors.New("help provided")
	errNotLoggedIn    = errors.New("not logged in: run `admin login` first")
	errSessionExpired = errors.New(core.SessionTimeoutNotice().Title)
)

type commandLine struct {
	conf         *core.Config
	store        *session.Store
	client       *apisvc.Client
	guard        *guard.Guard
	authSvc      *auth.Service
	usrSvc       *user.Service
	appraisalSvc *appraisal.Service
	logger       core.Logger
	clock        clockwork.Clock
	out          io.Writer
}

func newCommandLine(conf *core.Config, store *session.Store, client *apisvc.Client, validate *core.Validator, logger core.Logger, out io.Writer) *commandLine {
	return &commandLine{
		conf:         conf,
		store:        store,
		client:       client,
		guard:        guard.New(guard.DefaultEntry),
		authSvc:      auth.NewService(client, store, validate, logger),
		usrSvc:       user.NewService(client, validate),
		appraisalSvc: appraisal.NewService(client, validate),
		logger:       logger,
		clock:        clockwork.NewRealClock(),
		out:          out,
	}
}

func (cli *commandLine) now() time.Time {
	return cli.clock.Now()
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login --email EMAIL                            - log in as an admin (password prompted)")
	fmt.Fprintln(cli.out, "  visitor --matno MATNO                          - log in as a visitor")
	fmt.Fprintln(cli.out, "  register --firstname F --lastname L --email E  - create an account and log in")
	fmt.Fprintln(cli.out, "  logout                                         - end the session")
	fmt.Fprintln(cli.out, "  whoami                                         - show the current session")
	fmt.Fprintln(cli.out, "  adduser --firstname F --lastname L --email E [--role ROLE]")
	fmt.Fprintln(cli.out, "  admins [--exclude-role ROLE] [--retain] [--once] - follow the live admins list")
	fmt.Fprintln(cli.out, "  appraisals [--search S] [--ordering -created_at] [--page N]")
	fmt.Fprintln(cli.out, "  newappraisal --name N --criterion \"question[:max]\"...")
	fmt.Fprintln(cli.out, "  score --appraisal ID --appraisee ID --name NAME --score CRITERION=VALUE...")
	fmt.Fprintln(cli.out, "  faculties                                      - list faculties")
}

func (cli *commandLine) newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse maps -h/--help to errHelp.
func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "login":
		return cli.runLogin(ctx, args[2:])
	case "visitor":
		return cli.runVisitor(ctx, args[2:])
	case "register":
		return cli.runRegister(ctx, args[2:])
	case "logout":
		cli.authSvc.Logout()
		fmt.Fprintln(cli.out, "Logged out")
		return nil
	case "whoami":
		return cli.whoami()
	case "adduser":
		return cli.runAddUser(ctx, args[2:])
	case "admins":
		return cli.runAdmins(ctx, args[2:])
	case "appraisals":
		return cli.runAppraisals(ctx, args[2:])
	case "newappraisal":
		return cli.runNewAppraisal(ctx, args[2:])
	case "score":
		return cli.runScore(ctx, args[2:])
	case "faculties":
		return cli.runFaculties(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

// requireSession gates protected commands. A persisted session whose token
// has expired since the last run is expired first.
func (cli *commandLine) requireSession() (session.Session, error) {
	sess := cli.store.Read()
	if sess.IsAuthenticated {
		if exp, ok := session.TokenExpiry(sess.Token); ok && !exp.After(cli.now()) {
			cli.store.Expire()
			sess = cli.store.Read()
		}
	}

	if dec := cli.guard.Check(sess); !dec.Allow {
		if sess.Expired {
			return sess, errSessionExpired
		}
		return sess, errNotLoggedIn
	}
	return sess, nil
}

// promptPassword reads a password without echo. An empty answer is errHelp.
func (cli *commandLine) promptPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(pwd), "\r\n"), nil
}

// describe is what gets printed for a failed command.
func describe(err error) string {
	if errors.Is(err, errNotLoggedIn) || errors.Is(err, errSessionExpired) {
		return err.Error()
	}
	return core.NoticeFrom(err).Title
}
