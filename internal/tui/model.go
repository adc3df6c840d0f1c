// Package tui renders a live verification session in the terminal. The
// program is a passive observer: snapshots arrive through Program.Send
// and the view never mutates the session machine.
package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sravan1011/Clamify/internal/session"
)

var (
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorError   = lipgloss.Color("#f7768e")
	colorMuted   = lipgloss.Color("#565f89")
	colorFg      = lipgloss.Color("#c0caf5")

	headerStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	claimStyle  = lipgloss.NewStyle().Foreground(colorFg)
	sourceStyle = lipgloss.NewStyle().Foreground(colorMuted)
	logStyle    = lipgloss.NewStyle().Foreground(colorFg)
	errStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	footStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// SessionMsg delivers a session snapshot into the running program.
type SessionMsg session.Session

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "cancel"),
	),
}

// Model is the live progress view for one verification session.
type Model struct {
	spin     spinner.Model
	sess     session.Session
	width    int
	canceled bool
}

// NewModel creates the progress view for a claim about to be submitted.
func NewModel(claim string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		spin: s,
		sess: session.Session{Claim: claim, Status: session.StatusSubmitting},
	}
}

// Canceled reports whether the user quit before the session finished.
func (m Model) Canceled() bool {
	return m.canceled
}

// Final returns the last snapshot the view received.
func (m Model) Final() session.Session {
	return m.sess
}

func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			if !m.sess.Status.Terminal() {
				m.canceled = true
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case SessionMsg:
		m.sess = session.Session(msg)
		if m.sess.Status.Terminal() {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Verifying"))
	b.WriteString(" ")
	b.WriteString(claimStyle.Render(truncate(m.sess.Claim, m.width-12)))
	b.WriteString("\n\n")

	for _, entry := range m.sess.Log {
		b.WriteString("  ")
		if entry.Source != "" {
			b.WriteString(sourceStyle.Render("[" + entry.Source + "]"))
			b.WriteString(" ")
		}
		b.WriteString(logStyle.Render(entry.Text))
		b.WriteString("\n")
	}

	switch m.sess.Status {
	case session.StatusSubmitting:
		fmt.Fprintf(&b, "\n%s %s\n", m.spin.View(), sourceStyle.Render("submitting..."))
	case session.StatusStreaming:
		fmt.Fprintf(&b, "\n%s %s\n", m.spin.View(), sourceStyle.Render("analyzing..."))
	case session.StatusFailed:
		fmt.Fprintf(&b, "\n%s\n", errStyle.Render("✗ "+m.sess.ErrorMessage))
	}

	if !m.sess.Status.Terminal() {
		b.WriteString("\n")
		b.WriteString(footStyle.Render("q: cancel"))
		b.WriteString("\n")
	}

	return b.String()
}

// truncate shortens s to at most limit runes, counting in runes so a
// cut never lands inside a multibyte character.
func truncate(s string, limit int) string {
	if limit <= 3 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
