package main

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/appraisal"
	"github.com/trezcool/appraise/core/auth"
	"github.com/trezcool/appraise/core/guard"
	"github.com/trezcool/appraise/core/session"
	"github.com/trezcool/appraise/services/api"
)

const noticeTTL = 4 * time.Second

type screen int

const (
	welcomeScreen screen = iota
	loginScreen
	adminsScreen
	appraisalsScreen
)

func (s screen) String() string {
	switch s {
	case loginScreen:
		return "Log in"
	case adminsScreen:
		return "Admins"
	case appraisalsScreen:
		return "Appraisals"
	default:
		return "Welcome"
	}
}

// protected screens need an authenticated session.
func (s screen) protected() bool {
	return s == adminsScreen || s == appraisalsScreen
}

// deps are the long-lived services screens act through.
type deps struct {
	conf       *core.Config
	store      *session.Store
	client     *apisvc.Client
	auth       *auth.Service
	appraisals *appraisal.Service
	guard      *guard.Guard
	logger     core.Logger
}

type (
	sessionChangedMsg struct{}

	noticeTimeoutMsg struct{ id int }
)

// Model is the root bubbletea model. It owns navigation and runs the guard on every session change.
type Model struct {
	deps
	keys KeyMap
	help help.Model

	screen        screen
	width, height int
	notice        core.Notice
	noticeID      int

	sessionChanged *sessionWatch
	unsubscribe    func()

	login      loginForm
	admins     adminsView
	appraisals appraisalsView
}

// sessionWatch runs the guard on every session snapshot as it happens, so a
// timeout notice survives several changes coalescing into one update.
type sessionWatch struct {
	changed chan struct{}

	mu     sync.Mutex
	notice *core.Notice
}

func (w *sessionWatch) observe(dec guard.Decision) {
	if dec.Notice != nil {
		w.mu.Lock()
		w.notice = dec.Notice
		w.mu.Unlock()
	}
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

// takeNotice returns the pending notice, if any, and clears it.
func (w *sessionWatch) takeNotice() *core.Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	notice := w.notice
	w.notice = nil
	return notice
}

func newModel(d deps) Model {
	changed := &sessionWatch{changed: make(chan struct{}, 1)}
	unsubscribe := d.store.Subscribe(func(sess session.Session) {
		changed.observe(d.guard.Check(sess))
	})
	// prime the guard with the restored session
	d.guard.Check(d.store.Read())

	return Model{
		deps:           d,
		keys:           DefaultKeyMap,
		help:           help.New(),
		screen:         welcomeScreen,
		sessionChanged: changed,
		unsubscribe:    unsubscribe,
		login:          newLoginForm(),
		appraisals:     newAppraisalsView(),
	}
}

// Close releases the session subscription and any open stream.
func (m Model) Close() {
	m.admins.close()
	m.unsubscribe()
}

func (m Model) Init() tea.Cmd {
	return waitForSession(m.sessionChanged)
}

// waitForSession blocks until the session store reports a change.
func waitForSession(w *sessionWatch) tea.Cmd {
	return func() tea.Msg {
		<-w.changed
		return sessionChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case sessionChangedMsg:
		return m.handleSessionChange()

	case noticeTimeoutMsg:
		if msg.id == m.noticeID {
			m.notice = core.Notice{}
		}
		return m, nil

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case adminsChangedMsg:
		return m.handleAdminsChange(msg)

	case appraisalsLoadedMsg:
		return m.handleAppraisalsLoaded(msg)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Close()
			return m, tea.Quit
		}
		switch m.screen {
		case loginScreen:
			return m.handleLoginKeys(msg)
		case adminsScreen:
			return m.handleAdminsKeys(msg)
		case appraisalsScreen:
			return m.handleAppraisalsKeys(msg)
		default:
			return m.handleWelcomeKeys(msg)
		}
	}
	return m, nil
}

// handleSessionChange re-runs the guard: a revoked session evicts the user from protected screens at once.
func (m Model) handleSessionChange() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForSession(m.sessionChanged)}

	dec := m.guard.Check(m.store.Read())
	if !dec.Allow && m.screen.protected() {
		var cmd tea.Cmd
		m, cmd = m.navigate(welcomeScreen)
		cmds = append(cmds, cmd)
	}
	notice := m.sessionChanged.takeNotice()
	if notice == nil {
		notice = dec.Notice
	}
	if notice != nil {
		var cmd tea.Cmd
		m, cmd = m.showNotice(*notice)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// navigate leaves the current screen (closing its subscriptions) and enters to.
// Protected screens redirect anonymous sessions to the welcome screen.
func (m Model) navigate(to screen) (Model, tea.Cmd) {
	if to.protected() {
		if dec := m.guard.Check(m.store.Read()); !dec.Allow {
			notice := core.Notice{Level: core.NoticeWarning, Title: "Please log in first."}
			if dec.Notice != nil {
				notice = *dec.Notice
			}
			m = m.leave()
			m.screen = welcomeScreen
			return m.showNotice(notice)
		}
	}

	m = m.leave()
	m.screen = to
	switch to {
	case loginScreen:
		m.login = newLoginForm()
		return m, m.login.focusCmd()
	case adminsScreen:
		var cmd tea.Cmd
		m.admins, cmd = openAdmins(m.deps, m.admins.gen+1)
		return m, cmd
	case appraisalsScreen:
		m.appraisals = newAppraisalsView()
		m.appraisals.loading = true
		return m, loadAppraisals(m.deps, m.store.Read().Token)
	}
	return m, nil
}

func (m Model) leave() Model {
	if m.screen == adminsScreen {
		m.admins.close()
	}
	return m
}

func (m Model) showNotice(n core.Notice) (Model, tea.Cmd) {
	if n.Title == "" {
		return m, nil
	}
	m.noticeID++
	m.notice = n
	id := m.noticeID
	return m, tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeTimeoutMsg{id: id} })
}

func (m Model) handleWelcomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Login):
		return m.navigate(loginScreen)
	case key.Matches(msg, m.keys.Admins):
		return m.navigate(adminsScreen)
	case key.Matches(msg, m.keys.Appraisals):
		return m.navigate(appraisalsScreen)
	case key.Matches(msg, m.keys.Logout):
		m.auth.Logout()
		return m.showNotice(core.SuccessNotice("Logged out"))
	}
	return m, nil
}

// handleProtectedKeys are the bindings shared by protected screens.
func (m Model) handleProtectedKeys(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.Back):
		m, cmd := m.navigate(welcomeScreen)
		return m, cmd, true
	case key.Matches(msg, m.keys.Logout):
		m.auth.Logout()
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) View() string {
	var b strings.Builder

	header := titleStyle.Render(m.conf.AppName) + faintStyle.Render(" / "+m.screen.String())
	if sess := m.store.Read(); sess.IsAuthenticated && sess.User != nil {
		header += faintStyle.Render("  ·  " + sess.User.FullName() + " (" + sess.User.Role + ")")
	}
	b.WriteString(header + "\n\n")

	switch m.screen {
	case loginScreen:
		b.WriteString(m.login.view())
	case adminsScreen:
		b.WriteString(m.admins.view())
	case appraisalsScreen:
		b.WriteString(m.appraisals.view())
	default:
		b.WriteString(m.welcomeView())
	}

	b.WriteString("\n\n" + renderNotice(m.notice) + "\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m Model) welcomeView() string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("Staff appraisal administration"),
		"",
		"Manage admins and appraisal templates.",
	}
	if !m.store.Read().IsAuthenticated {
		lines = append(lines, "", faintStyle.Render("Log in to continue."))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) helpKeys() []key.Binding {
	switch m.screen {
	case loginScreen:
		return []key.Binding{m.keys.Submit, m.keys.NextField, m.keys.Back}
	case adminsScreen:
		return []key.Binding{m.keys.Retry, m.keys.Logout, m.keys.Back, m.keys.Quit}
	case appraisalsScreen:
		return []key.Binding{m.keys.Search, m.keys.Sort, m.keys.Reverse, m.keys.NextPage, m.keys.PrevPage, m.keys.Retry, m.keys.Back, m.keys.Quit}
	default:
		if m.store.Read().IsAuthenticated {
			return []key.Binding{m.keys.Admins, m.keys.Appraisals, m.keys.Logout, m.keys.Quit}
		}
		return []key.Binding{m.keys.Login, m.keys.Admins, m.keys.Appraisals, m.keys.Quit}
	}
}
