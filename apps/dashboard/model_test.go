package main

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/appraisal"
	"github.com/trezcool/appraise/core/auth"
	"github.com/trezcool/appraise/core/guard"
	"github.com/trezcool/appraise/core/livelist"
	"github.com/trezcool/appraise/core/session"
	"github.com/trezcool/appraise/core/user"
	"github.com/trezcool/appraise/services/api"
	"github.com/trezcool/appraise/storage/session"
	"github.com/trezcool/appraise/tests"
)

const pwd = "Xq9#kT7!zW"

func setup(t *testing.T) (Model, *testutil.Backend) {
	backend := testutil.NewBackend(t)
	store, err := session.NewStore(sessionstore.NewMemPersister())
	require.NoError(t, err)

	conf := &core.Config{AppName: "Appraise", TestMode: true}
	conf.Admins.ExcludedRole = user.RoleLecturer

	client := apisvc.NewClient(backend.URL(), apisvc.OnUnauthorized(store.Expire))
	validate := core.NewValidator(user.InitValidators)
	m := newModel(deps{
		conf:       conf,
		store:      store,
		client:     client,
		auth:       auth.NewService(client, store, validate, core.NopLogger{}),
		appraisals: appraisal.NewService(client, validate),
		guard:      guard.New(guard.DefaultEntry),
		logger:     core.NopLogger{},
	})
	t.Cleanup(m.Close)
	return m, backend
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func logIn(t *testing.T, m Model, backend *testutil.Backend) Model {
	t.Helper()
	usr := backend.AddUser(user.User{Firstname: "Grace", Lastname: "Hopper", Email: "grace@uni.edu", Role: user.RoleSuperAdmin}, pwd)
	m.store.LoginSuccess(usr, backend.Token(usr, time.Hour))
	m, _ = update(t, m, sessionChangedMsg{})
	return m
}

func TestModel_anonymousIsRedirected(t *testing.T) {
	m, _ := setup(t)

	for _, k := range []string{"a", "p"} {
		m, _ = update(t, m, keyMsg(k))
		assert.Equal(t, welcomeScreen, m.screen)
		assert.Equal(t, "Please log in first.", m.notice.Title)
	}
}

func TestModel_login(t *testing.T) {
	m, backend := setup(t)
	backend.AddUser(user.User{Firstname: "Grace", Lastname: "Hopper", Email: "grace@uni.edu", Role: user.RoleSuperAdmin}, pwd)

	m, _ = update(t, m, keyMsg("l"))
	require.Equal(t, loginScreen, m.screen)
	m.login.inputs[0].SetValue("grace@uni.edu")
	m.login.inputs[1].SetValue(pwd)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.login.submitting)

	// submit is disabled while in flight
	m, again := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	result, ok := cmd().(loginResultMsg)
	require.True(t, ok)
	require.NoError(t, result.err)

	m, _ = update(t, m, result)
	assert.False(t, m.login.submitting)
	assert.Equal(t, adminsScreen, m.screen)
	assert.Equal(t, core.NoticeSuccess, m.notice.Level)
	assert.True(t, m.store.Read().IsAuthenticated)
	assert.Len(t, backend.Requests(), 1)
}

func TestModel_loginValidationNeverReachesServer(t *testing.T) {
	m, backend := setup(t)

	m, _ = update(t, m, keyMsg("l"))
	m.login.inputs[0].SetValue("not-an-email")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, loginScreen, m.screen)
	assert.Equal(t, core.NoticeError, m.notice.Level)
	assert.Empty(t, backend.Requests())
}

func TestModel_expiryEvictsWithNotice(t *testing.T) {
	m, backend := setup(t)
	m = logIn(t, m, backend)

	m, _ = update(t, m, keyMsg("a"))
	require.Equal(t, adminsScreen, m.screen)
	sub := m.admins.sub

	m.store.Expire()
	m, _ = update(t, m, sessionChangedMsg{})

	assert.Equal(t, welcomeScreen, m.screen)
	assert.Equal(t, "Your session has timed out. Please log in again.", m.notice.Title)
	assert.Equal(t, livelist.Closed, sub.syncer.Snapshot().State)
}

func TestModel_expiryNoticeSurvivesCoalescedChanges(t *testing.T) {
	m, backend := setup(t)
	usr := backend.AddUser(user.User{Firstname: "Ada", Email: "ada@uni.edu", Role: user.RoleAdmin}, pwd)

	// both transitions land before the model handles a single change
	m.store.LoginSuccess(usr, backend.Token(usr, time.Hour))
	m.store.Expire()
	m, _ = update(t, m, sessionChangedMsg{})

	assert.Equal(t, welcomeScreen, m.screen)
	assert.Equal(t, "Your session has timed out. Please log in again.", m.notice.Title)

	// shown once
	m, _ = update(t, m, sessionChangedMsg{})
	m, _ = update(t, m, keyMsg("a"))
	assert.Equal(t, "Please log in first.", m.notice.Title)
}

func TestModel_logoutEvictsSilently(t *testing.T) {
	m, backend := setup(t)
	m = logIn(t, m, backend)

	m, _ = update(t, m, keyMsg("p"))
	require.Equal(t, appraisalsScreen, m.screen)

	m, _ = update(t, m, keyMsg("o"))
	m, _ = update(t, m, sessionChangedMsg{})

	assert.Equal(t, welcomeScreen, m.screen)
	assert.Empty(t, m.notice.Title)
}

func TestModel_adminsLiveList(t *testing.T) {
	m, backend := setup(t)
	m = logIn(t, m, backend)
	lecturer := backend.AddUser(user.User{Firstname: "Linus", Lastname: "Lect", Email: "linus@uni.edu", Role: user.RoleLecturer}, "")

	m, _ = update(t, m, keyMsg("a"))
	sub := m.admins.sub
	require.NoError(t, sub.syncer.Start(context.Background()))

	next := func() {
		msg := waitForAdmins(m.admins.gen, sub)()
		m, _ = update(t, m, msg)
	}

	next()
	require.Eventually(t, func() bool { return sub.syncer.Snapshot().Seeded }, 2*time.Second, 10*time.Millisecond)
	m, _ = update(t, m, adminsChangedMsg{gen: m.admins.gen})
	require.Len(t, m.admins.snap.Items, 1)
	assert.Equal(t, "grace@uni.edu", m.admins.snap.Items[0].Email)

	// promoted lecturer shows up
	lecturer.Role = user.RoleAdmin
	backend.Push(user.StreamUpdateEvent, lecturer)
	require.Eventually(t, func() bool { return len(sub.syncer.Items()) == 2 }, 2*time.Second, 10*time.Millisecond)
	m, _ = update(t, m, adminsChangedMsg{gen: m.admins.gen})
	assert.Len(t, m.admins.snap.Items, 2)

	// leaving closes the subscription; late changes are ignored
	gen := m.admins.gen
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, welcomeScreen, m.screen)
	assert.Equal(t, livelist.Closed, sub.syncer.Snapshot().State)
	assert.False(t, sub.syncer.Deliver(livelist.Upsert[user.User]{Record: lecturer}))

	m, cmd := update(t, m, adminsChangedMsg{gen: gen})
	assert.Nil(t, cmd)
	assert.Eventually(t, func() bool { return backend.StreamCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestModel_appraisals(t *testing.T) {
	m, backend := setup(t)
	m = logIn(t, m, backend)
	for _, name := range []string{"Research", "Teaching", "Community service"} {
		backend.AddAppraisal(appraisal.Appraisal{Name: name, Status: appraisal.StatusOpen})
	}

	m, cmd := update(t, m, keyMsg("p"))
	require.True(t, m.appraisals.loading)
	m, _ = update(t, m, cmd())
	require.False(t, m.appraisals.loading)
	assert.Equal(t, 3, m.appraisals.result.Total)

	// search narrows the list
	m, _ = update(t, m, keyMsg("/"))
	require.True(t, m.appraisals.searching)
	for _, r := range "teach" {
		m, _ = update(t, m, keyMsg(string(r)))
	}
	assert.Equal(t, 1, m.appraisals.result.Total)
	assert.Equal(t, "Teaching", m.appraisals.result.Rows[0].Name)
}
