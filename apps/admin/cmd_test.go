package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/appraisal"
	"github.com/trezcool/appraise/core/faculty"
	"github.com/trezcool/appraise/core/session"
	"github.com/trezcool/appraise/core/user"
	"github.com/trezcool/appraise/services/api"
	"github.com/trezcool/appraise/storage/session"
	"github.com/trezcool/appraise/tests"
)

const adminPwd = "Xq9#kT7!zW"

var superAdmin = user.User{Firstname: "Grace", Lastname: "Hopper", Email: "grace@uni.edu", Role: user.RoleSuperAdmin}

type fixture struct {
	cli     *commandLine
	backend *testutil.Backend
	store   *session.Store
	out     *bytes.Buffer
}

func setup(t *testing.T) fixture {
	backend := testutil.NewBackend(t)
	store, err := session.NewStore(sessionstore.NewMemPersister())
	require.NoError(t, err)

	conf := &core.Config{Env: "TEST", TestMode: true}
	conf.Admins.ExcludedRole = user.RoleLecturer

	client := apisvc.NewClient(backend.URL(), apisvc.OnUnauthorized(store.Expire))
	out := new(bytes.Buffer)
	cli := newCommandLine(conf, store, client, core.NewValidator(user.InitValidators), core.NopLogger{}, out)
	return fixture{cli: cli, backend: backend, store: store, out: out}
}

// login logs usr in directly through the store.
func (f fixture) login(t *testing.T, usr user.User, ttl time.Duration) user.User {
	usr = f.backend.AddUser(usr, adminPwd)
	f.store.LoginSuccess(usr, f.backend.Token(usr, ttl))
	return usr
}

func withPasswords(pwds ...string) func() {
	orig := readPasswordFunc
	i := 0
	readPasswordFunc = func(fd int) ([]byte, error) {
		if i >= len(pwds) {
			return nil, nil
		}
		i++
		return []byte(pwds[i-1]), nil
	}
	return func() { readPasswordFunc = orig }
}

type cliTest struct {
	name      string
	args      []string // without program name
	passwords []string
	wantErr   error
}

func runCLI(t *testing.T, f fixture, tt cliTest) error {
	t.Helper()
	restore := withPasswords(tt.passwords...)
	defer restore()
	f.out.Reset()
	return f.cli.run(context.Background(), append([]string{"admin"}, tt.args...))
}

func Test_commandLine_usage(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "login without email", args: []string{"login"}, wantErr: errHelp},
		{name: "login help", args: []string{"login", "--help"}, wantErr: errHelp},
		{name: "visitor without matno", args: []string{"visitor"}, wantErr: errHelp},
		{name: "score without ids", args: []string{"score"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(t, f, tt)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_commandLine_login(t *testing.T) {
	f := setup(t)
	usr := f.backend.AddUser(superAdmin, adminPwd)

	t.Run("invalid email never reaches the server", func(t *testing.T) {
		err := runCLI(t, f, cliTest{args: []string{"login", "--email", "grace"}, passwords: []string{adminPwd}})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Empty(t, f.backend.Requests())
	})

	t.Run("wrong password", func(t *testing.T) {
		err := runCLI(t, f, cliTest{args: []string{"login", "--email", usr.Email}, passwords: []string{"nope"}})
		require.Error(t, err)
		assert.Equal(t, "invalid credentials", describe(err))
		assert.False(t, f.store.Read().IsAuthenticated)
	})

	t.Run("success", func(t *testing.T) {
		err := runCLI(t, f, cliTest{args: []string{"login", "--email", " Grace@Uni.edu "}, passwords: []string{adminPwd}})
		require.NoError(t, err)
		sess := f.store.Read()
		assert.True(t, sess.IsAuthenticated)
		assert.Equal(t, usr.ID, sess.User.ID)
		assert.Contains(t, f.out.String(), "Logged in as Grace Hopper (SUPER_ADMIN)")
	})

	t.Run("whoami", func(t *testing.T) {
		require.NoError(t, runCLI(t, f, cliTest{args: []string{"whoami"}}))
		assert.Contains(t, f.out.String(), "Grace Hopper <grace@uni.edu> SUPER_ADMIN")
	})

	t.Run("logout", func(t *testing.T) {
		require.NoError(t, runCLI(t, f, cliTest{args: []string{"logout"}}))
		assert.Equal(t, session.Session{}, stripTime(f.store.Read()))
		assert.ErrorIs(t, runCLI(t, f, cliTest{args: []string{"whoami"}}), errNotLoggedIn)
	})
}

func Test_commandLine_visitor(t *testing.T) {
	f := setup(t)
	f.backend.AddUser(user.User{Firstname: "Ada", Lastname: "Obi", MatNo: "De.2019/4521", Role: user.RoleVisitor}, "")

	t.Run("matno with spaces", func(t *testing.T) {
		err := runCLI(t, f, cliTest{args: []string{"visitor", "--matno", "AG 101"}})
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr))
		assert.Empty(t, f.backend.Requests())
	})

	t.Run("unknown matno", func(t *testing.T) {
		err := runCLI(t, f, cliTest{args: []string{"visitor", "--matno", "De.2019/0000"}})
		var sErr *core.ServerError
		require.True(t, errors.As(err, &sErr))
		assert.Equal(t, 400, sErr.Code)
		assert.Equal(t, "unknown matriculation number", describe(err))
	})

	t.Run("known matno", func(t *testing.T) {
		require.NoError(t, runCLI(t, f, cliTest{args: []string{"visitor", "--matno", "De.2019/4521"}}))
		assert.Contains(t, f.out.String(), "Logged in as Ada Obi (VISITOR)")
		assert.True(t, f.store.Read().User.HasRole(user.RoleVisitor))
	})

	t.Run("short matno", func(t *testing.T) {
		f.backend.AddUser(user.User{Firstname: "Chidi", Lastname: "Eze", MatNo: "AG101", Role: user.RoleVisitor}, "")
		require.NoError(t, runCLI(t, f, cliTest{args: []string{"visitor", "--matno", "AG101"}}))
		assert.Contains(t, f.out.String(), "Logged in as Chidi Eze (VISITOR)")
	})
}

func Test_commandLine_register(t *testing.T) {
	f := setup(t)

	t.Run("password mismatch never reaches the server", func(t *testing.T) {
		err := runCLI(t, f, cliTest{
			args:      []string{"register", "--firstname", "Jane", "--lastname", "Doe", "--email", "jane@uni.edu"},
			passwords: []string{"a", "b"},
		})
		require.Error(t, err)
		assert.Equal(t, "passwords do not match", describe(err))
		assert.Empty(t, f.backend.Requests())
	})

	t.Run("success", func(t *testing.T) {
		err := runCLI(t, f, cliTest{
			args:      []string{"register", "--firstname", "Jane", "--lastname", "Doe", "--email", "jane@uni.edu"},
			passwords: []string{adminPwd, adminPwd},
		})
		require.NoError(t, err)
		assert.True(t, f.store.Read().IsAuthenticated)

		reqs := f.backend.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "/register", reqs[0].Path)
		assert.NotContains(t, reqs[0].Body, "confirmPassword")
		assert.NotEmpty(t, reqs[0].RequestID)
	})
}

func Test_commandLine_addUser(t *testing.T) {
	f := setup(t)

	args := []string{"adduser", "--firstname", "Alan", "--lastname", "Turing", "--email", "alan@uni.edu", "--role", "admin"}

	t.Run("anonymous", func(t *testing.T) {
		err := runCLI(t, f, cliTest{args: args, passwords: []string{adminPwd, adminPwd}})
		assert.ErrorIs(t, err, errNotLoggedIn)
	})

	f.login(t, user.User{Firstname: "Ann", Lastname: "Lee", Email: "ann@uni.edu", Role: user.RoleAdmin}, time.Hour)

	t.Run("cannot grant a higher role", func(t *testing.T) {
		superArgs := append(append([]string{}, args[:len(args)-1]...), "SUPER_ADMIN")
		err := runCLI(t, f, cliTest{args: superArgs, passwords: []string{adminPwd, adminPwd}})
		require.Error(t, err)
		assert.Equal(t, "not enough rights to set this role", describe(err))
	})

	t.Run("success", func(t *testing.T) {
		err := runCLI(t, f, cliTest{args: args, passwords: []string{adminPwd, adminPwd}})
		require.NoError(t, err)
		assert.Contains(t, f.out.String(), "Created Alan Turing <alan@uni.edu> (ADMIN)")

		reqs := f.backend.Requests()
		last := reqs[len(reqs)-1]
		assert.Equal(t, "/users", last.Path)
		assert.Regexp(t, `^Bearer .+`, last.Auth)
		assert.NotContains(t, last.Body, "confirm_password")
	})
}

func Test_commandLine_expiredSession(t *testing.T) {
	f := setup(t)
	f.login(t, superAdmin, -time.Minute)

	err := runCLI(t, f, cliTest{args: []string{"whoami"}})
	assert.ErrorIs(t, err, errSessionExpired)
	assert.Equal(t, "Your session has timed out. Please log in again.", describe(err))

	sess := f.store.Read()
	assert.False(t, sess.IsAuthenticated)
	assert.True(t, sess.Expired)
}

func Test_commandLine_unauthorizedExpiresSession(t *testing.T) {
	f := setup(t)
	f.login(t, superAdmin, time.Hour)
	f.backend.FailNext("/appraisals", 401, "invalid or expired jwt")

	err := runCLI(t, f, cliTest{args: []string{"appraisals"}})
	require.Error(t, err)
	assert.Equal(t, "Unauthorized. Please log in again.", describe(err))
	assert.True(t, f.store.Read().Expired)
}

func Test_commandLine_admins(t *testing.T) {
	f := setup(t)
	f.login(t, superAdmin, time.Hour)
	f.backend.AddUser(user.User{Firstname: "Linus", Lastname: "Lect", Email: "linus@uni.edu", Role: user.RoleLecturer}, "")
	f.backend.AddUser(user.User{Firstname: "Ann", Lastname: "Lee", Email: "ann@uni.edu", Role: user.RoleAdmin}, "")

	err := runCLI(t, f, cliTest{args: []string{"admins", "--once"}})
	require.NoError(t, err)

	out := f.out.String()
	assert.Contains(t, out, "grace@uni.edu")
	assert.Contains(t, out, "ann@uni.edu")
	assert.NotContains(t, out, "linus@uni.edu")
	assert.Contains(t, out, "2 users")
	assert.Eventually(t, func() bool { return f.backend.StreamCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func Test_commandLine_adminsConnectionLost(t *testing.T) {
	f := setup(t)
	f.login(t, superAdmin, time.Hour)

	done := make(chan error, 1)
	go func() { done <- f.cli.run(context.Background(), []string{"admin", "admins"}) }()

	require.Eventually(t, func() bool { return f.backend.StreamCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	f.backend.DropStreams()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrConnectionLost)
		assert.Equal(t, "Connection lost. Retrying…", describe(err))
	case <-time.After(2 * time.Second):
		t.Fatal("admins did not stop after the stream dropped")
	}
}

func Test_commandLine_appraisals(t *testing.T) {
	f := setup(t)
	f.login(t, superAdmin, time.Hour)

	t.Run("create", func(t *testing.T) {
		err := runCLI(t, f, cliTest{args: []string{
			"newappraisal", "--name", "Teaching 2026", "--status", "open",
			"--criterion", "Punctuality:5", "--criterion", "Clarity",
		}})
		require.NoError(t, err)
		assert.Contains(t, f.out.String(), `Created appraisal "Teaching 2026"`)
		assert.Contains(t, f.out.String(), "with 2 criteria")
	})

	t.Run("list", func(t *testing.T) {
		err := runCLI(t, f, cliTest{args: []string{"appraisals", "--search", "teaching"}})
		require.NoError(t, err)
		assert.Contains(t, f.out.String(), "Teaching 2026")
		assert.Contains(t, f.out.String(), "page 1/1, 1 row")
	})

	t.Run("score", func(t *testing.T) {
		var created appraisal.Appraisal
		for _, a := range listAppraisals(t, f) {
			if a.Name == "Teaching 2026" {
				created = a
			}
		}
		require.Len(t, created.Criteria, 2)

		args := []string{
			"score", "--appraisal", created.ID, "--appraisee", "lect-1", "--name", "Dr. Jane Doe",
			"--score", created.Criteria[0].ID + "=4",
		}
		err := runCLI(t, f, cliTest{args: args})
		require.Error(t, err, "every criterion must be scored")
		assert.Empty(t, f.backend.Scores())

		args = append(args, "--score", created.Criteria[1].ID+"=5")
		require.NoError(t, runCLI(t, f, cliTest{args: args}))
		assert.Contains(t, f.out.String(), "[JD] Jane Doe scored 9/10 (90%)")
		require.Len(t, f.backend.Scores(), 1)
		assert.Equal(t, 9, f.backend.Scores()[0].Total)
	})
}

func listAppraisals(t *testing.T, f fixture) []appraisal.Appraisal {
	t.Helper()
	appraisals, err := f.cli.appraisalSvc.List(context.Background(), f.store.Read().Token)
	require.NoError(t, err)
	return appraisals
}

func stripTime(sess session.Session) session.Session {
	sess.UpdatedAt = time.Time{}
	return sess
}

func Test_commandLine_faculties(t *testing.T) {
	f := setup(t)

	err := runCLI(t, f, cliTest{args: []string{"faculties"}})
	assert.ErrorIs(t, err, errNotLoggedIn)

	f.login(t, superAdmin, time.Hour)
	f.backend.AddFaculty(faculty.Faculty{ID: 2, Faculty: "Sciences", Department: 4})
	f.backend.AddFaculty(faculty.Faculty{ID: 1, Faculty: "Law", Department: 2})

	require.NoError(t, runCLI(t, f, cliTest{args: []string{"faculties"}}))
	out := f.out.String()
	assert.Contains(t, out, "Department")
	assert.Less(t, strings.Index(out, "Law"), strings.Index(out, "Sciences"), "sorted by faculty name")
	assert.Contains(t, out, "page 1/1, 2 rows")
}
