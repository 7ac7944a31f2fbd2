package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the dashboard.
type KeyMap struct {
	Quit   key.Binding
	Back   key.Binding
	Login  key.Binding
	Admins key.Binding
	// Appraisals uses "p": "a" is taken by Admins.
	Appraisals key.Binding
	Logout     key.Binding
	Retry      key.Binding

	Submit    key.Binding
	NextField key.Binding
	PrevField key.Binding

	Search   key.Binding
	Sort     key.Binding
	Reverse  key.Binding
	NextPage key.Binding
	PrevPage key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Login:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "log in")),
	Admins:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "admins")),
	Appraisals: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "appraisals")),
	Logout:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "log out")),
	Retry:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reconnect")),

	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("S-tab", "previous field")),

	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Reverse:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "reverse")),
	NextPage: key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "next page")),
	PrevPage: key.NewBinding(key.WithKeys("left", "b"), key.WithHelp("←/b", "previous page")),
}
