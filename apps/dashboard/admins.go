package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	btable "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/livelist"
	"github.com/trezcool/appraise/core/user"
)

const adminsTableHeight = 15

// adminsChangedMsg reports a change of the subscription opened as generation gen.
type adminsChangedMsg struct{ gen int }

// adminsSubscription is the live users stream of one visit to the Admins screen.
type adminsSubscription struct {
	syncer  *livelist.Synchronizer[user.User]
	changed chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func (sub *adminsSubscription) close() {
	sub.once.Do(func() {
		sub.syncer.Close()
		close(sub.closed)
	})
}

type adminsView struct {
	gen   int
	sub   *adminsSubscription
	snap  livelist.Snapshot[user.User]
	table btable.Model
}

// openAdmins subscribes to the users stream; it is closed again when the screen is left.
func openAdmins(d deps, gen int) (adminsView, tea.Cmd) {
	filter := livelist.Filter[user.User]{}
	if d.conf.Admins.ExcludedRole != "" {
		filter.Include = user.ExcludeRole(d.conf.Admins.ExcludedRole)
	}

	sub := &adminsSubscription{
		changed: make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
	sub.syncer = livelist.New(
		d.client.UsersStream(d.store.Read().Token),
		livelist.JSONDecoder[user.User](user.StreamSeedEvent, user.StreamUpdateEvent),
		livelist.WithFilter(filter),
		livelist.WithLogger[user.User](d.logger),
		livelist.WithListener(func(livelist.Snapshot[user.User]) {
			select {
			case sub.changed <- struct{}{}:
			default:
			}
		}),
	)

	v := adminsView{
		gen:   gen,
		sub:   sub,
		snap:  sub.syncer.Snapshot(),
		table: newTable(user.Columns, nil, adminsTableHeight),
	}
	logger := d.logger
	start := func() tea.Msg {
		// failures surface as a Lost snapshot
		if err := sub.syncer.Start(context.Background()); err != nil {
			logger.Debug("users stream did not open", err)
		}
		return nil
	}
	return v, tea.Batch(start, waitForAdmins(gen, sub))
}

func waitForAdmins(gen int, sub *adminsSubscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-sub.changed:
			return adminsChangedMsg{gen: gen}
		case <-sub.closed:
			return nil
		}
	}
}

func (v adminsView) close() {
	if v.sub != nil {
		v.sub.close()
	}
}

func (m Model) handleAdminsChange(msg adminsChangedMsg) (tea.Model, tea.Cmd) {
	// late messages of a subscription that was left are dropped
	if m.screen != adminsScreen || msg.gen != m.admins.gen {
		return m, nil
	}

	snap := m.admins.sub.syncer.Snapshot()
	m.admins.snap = snap
	m.admins.table = newTable(user.Columns, snap.Items, adminsTableHeight)

	if snap.State == livelist.Lost {
		return m.showNotice(core.NoticeFrom(snap.Err))
	}
	return m, waitForAdmins(m.admins.gen, m.admins.sub)
}

func (m Model) handleAdminsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m, cmd, handled := m.handleProtectedKeys(msg); handled {
		return m, cmd
	}
	if key.Matches(msg, m.keys.Retry) && m.admins.snap.State == livelist.Lost {
		return m.navigate(adminsScreen)
	}

	var cmd tea.Cmd
	m.admins.table, cmd = m.admins.table.Update(msg)
	return m, cmd
}

func (v adminsView) view() string {
	var status string
	switch v.snap.State {
	case livelist.Connecting:
		status = "Connecting…"
	case livelist.Lost:
		status = "Disconnected. Press r to reconnect."
	case livelist.Live:
		status = fmt.Sprintf("Live · %d users", len(v.snap.Items))
	default:
		status = v.snap.State.String()
	}
	return v.table.View() + "\n" + faintStyle.Render(status)
}
