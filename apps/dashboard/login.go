package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/user"
)

type loginResultMsg struct {
	resp user.AuthResponse
	err  error
}

type loginForm struct {
	inputs     []textinput.Model
	focused    int
	submitting bool
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Prompt = "Email    "

	pwd := textinput.New()
	pwd.Placeholder = "password"
	pwd.Prompt = "Password "
	pwd.EchoMode = textinput.EchoPassword
	pwd.EchoCharacter = '•'

	return loginForm{inputs: []textinput.Model{email, pwd}}
}

func (f *loginForm) focusCmd() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.focused].Focus()
}

func (f loginForm) credentials() user.Credentials {
	return user.Credentials{Email: f.inputs[0].Value(), Password: f.inputs[1].Value()}
}

func (f loginForm) view() string {
	lines := make([]string, 0, len(f.inputs)+2)
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "")
	if f.submitting {
		lines = append(lines, faintStyle.Render("Logging in…"))
	} else {
		lines = append(lines, "[ Log in ]")
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.navigate(welcomeScreen)
	case key.Matches(msg, m.keys.Submit):
		return m.submitLogin()
	case key.Matches(msg, m.keys.NextField):
		m.login.focused = (m.login.focused + 1) % len(m.login.inputs)
		return m, m.login.focusCmd()
	case key.Matches(msg, m.keys.PrevField):
		m.login.focused = (m.login.focused + len(m.login.inputs) - 1) % len(m.login.inputs)
		return m, m.login.focusCmd()
	}

	if m.login.submitting {
		return m, nil
	}
	var cmd tea.Cmd
	m.login.inputs[m.login.focused], cmd = m.login.inputs[m.login.focused].Update(msg)
	return m, cmd
}

// submitLogin is a no-op while a login is in flight.
func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.login.submitting {
		return m, nil
	}
	m.login.submitting = true
	creds := m.login.credentials()
	svc := m.auth
	return m, func() tea.Msg {
		resp, err := svc.Login(context.Background(), creds)
		return loginResultMsg{resp: resp, err: err}
	}
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.login.submitting = false
	if msg.err != nil {
		m.deps.logger.Debug("login failed", msg.err)
		return m.showNotice(core.NoticeFrom(msg.err))
	}

	title := msg.resp.Message
	if title == "" {
		title = "Login successful"
	}
	m, noticeCmd := m.showNotice(core.SuccessNotice(title))
	if m.screen != loginScreen {
		return m, noticeCmd
	}
	m, navCmd := m.navigate(adminsScreen)
	return m, tea.Batch(noticeCmd, navCmd)
}
