package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	statusTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	statusHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241"))
	statusErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const statusRefreshInterval = 2 * time.Second

func newStatusCmd() *cobra.Command {
	var (
		adminURL           string
		insecureSkipVerify bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a live, auto-refreshing table of sessions known to the Session Manager",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient(adminURL, insecureSkipVerify)
			if err := c.logon(context.Background(), sessionctlUser, sessionctlDomain, sessionctlPassword); err != nil {
				return fmt.Errorf("logon: %w", err)
			}

			p := tea.NewProgram(newStatusModel(c))
			_, err := p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&adminURL, "admin-url", "https://127.0.0.1:8443", "administrative API base URL")
	cmd.Flags().BoolVar(&insecureSkipVerify, "insecure-skip-verify", true,
		"skip TLS certificate verification (the admin API self-signs by default)")

	return cmd
}

type sessionsFetchedMsg struct {
	rows []sessionRow
	err  error
}

type statusModel struct {
	client *client
	rows   []sessionRow
	err    error
}

func newStatusModel(c *client) *statusModel {
	return &statusModel{client: c}
}

func (m *statusModel) Init() tea.Cmd {
	return m.fetch()
}

func (m *statusModel) fetch() tea.Cmd {
	return func() tea.Msg {
		rows, err := m.client.enumerateSessions(context.Background())
		return sessionsFetchedMsg{rows: rows, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(statusRefreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

type tickMsg struct{}

func (m *statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" || msg.String() == "esc" {
			return m, tea.Quit
		}
		return m, nil
	case sessionsFetchedMsg:
		m.rows, m.err = msg.rows, msg.err
		return m, tick()
	case tickMsg:
		return m, m.fetch()
	default:
		return m, nil
	}
}

func (m *statusModel) View() string {
	view := statusTitleStyle.Render("ogon session manager — live sessions") + "\n\n"

	if m.err != nil {
		view += statusErrorStyle.Render(fmt.Sprintf("error: %v", m.err)) + "\n"
		view += statusHelpStyle.Render("\nq to quit")
		return view
	}

	view += statusHeaderStyle.Render(fmt.Sprintf("%-8s %-16s %-12s %-20s %-14s",
		"ID", "USER", "DOMAIN", "CLIENT", "STATE")) + "\n"

	for _, r := range m.rows {
		view += fmt.Sprintf("%-8d %-16s %-12s %-20s %-14s\n",
			r.SessionID, r.UserName, r.Domain, r.ClientHostName, r.ConnectState)
	}
	if len(m.rows) == 0 {
		view += "(no live sessions)\n"
	}

	view += statusHelpStyle.Render("\nq to quit")
	return view
}
