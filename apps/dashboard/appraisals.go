package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/appraisal"
	coretable "github.com/trezcool/appraise/core/table"
)

const appraisalsPageSize = 10

type appraisalsLoadedMsg struct {
	appraisals []appraisal.Appraisal
	err        error
}

type appraisalsView struct {
	loading   bool
	items     []appraisal.Appraisal
	search    textinput.Model
	searching bool
	sortCol   int
	ascending bool
	page      int
	result    coretable.Page[appraisal.Appraisal]
	table     btable.Model
}

func newAppraisalsView() appraisalsView {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"

	v := appraisalsView{search: search, sortCol: len(appraisal.Columns) - 1, page: 1}
	return v.refresh()
}

func loadAppraisals(d deps, token string) tea.Cmd {
	svc := d.appraisals
	return func() tea.Msg {
		appraisals, err := svc.List(context.Background(), token)
		return appraisalsLoadedMsg{appraisals: appraisals, err: err}
	}
}

// refresh recomputes the visible page from items, the search term and the ordering.
func (v appraisalsView) refresh() appraisalsView {
	ord := coretable.Ordering{Field: appraisal.Columns[v.sortCol].Key, Ascending: v.ascending}
	v.result = coretable.Apply(v.items, appraisal.Columns, coretable.Query{
		Search:   v.search.Value(),
		Ordering: []coretable.Ordering{ord},
		Page:     v.page,
		PageSize: appraisalsPageSize,
	})
	v.page = v.result.Page
	v.table = newTable(appraisal.Columns, v.result.Rows, appraisalsPageSize)
	return v
}

func (m Model) handleAppraisalsLoaded(msg appraisalsLoadedMsg) (tea.Model, tea.Cmd) {
	if m.screen != appraisalsScreen {
		return m, nil
	}
	m.appraisals.loading = false
	if msg.err != nil {
		return m.showNotice(core.NoticeFrom(msg.err))
	}
	m.appraisals.items = msg.appraisals
	m.appraisals = m.appraisals.refresh()
	return m, nil
}

func (m Model) handleAppraisalsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.appraisals

	if v.searching {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			v.searching = false
			v.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		v.page = 1
		*v = v.refresh()
		return m, cmd
	}

	if m, cmd, handled := m.handleProtectedKeys(msg); handled {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		v.searching = true
		return m, v.search.Focus()
	case key.Matches(msg, m.keys.Sort):
		v.sortCol = (v.sortCol + 1) % len(appraisal.Columns)
	case key.Matches(msg, m.keys.Reverse):
		v.ascending = !v.ascending
	case key.Matches(msg, m.keys.NextPage):
		v.page++
	case key.Matches(msg, m.keys.PrevPage):
		v.page--
	case key.Matches(msg, m.keys.Retry):
		v.loading = true
		return m, loadAppraisals(m.deps, m.store.Read().Token)
	default:
		var cmd tea.Cmd
		v.table, cmd = v.table.Update(msg)
		return m, cmd
	}
	*v = v.refresh()
	return m, nil
}

func (v appraisalsView) view() string {
	if v.loading {
		return faintStyle.Render("Loading appraisals…")
	}
	direction := "↓"
	if v.ascending {
		direction = "↑"
	}
	status := fmt.Sprintf("page %d/%d · %d appraisals · sorted by %s %s",
		v.result.Page, v.result.Pages, v.result.Total, appraisal.Columns[v.sortCol].Header(), direction)
	return v.search.View() + "\n" + v.table.View() + "\n" + faintStyle.Render(status)
}
