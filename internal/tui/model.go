// Package tui renders a terminal session as a bubbletea program.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/devconsole/internal/terminal"
)

const (
	promptUser = "poza@portfolio"
	cursor     = "█"
	// chrome is the number of rows taken by header, prompt and suggestions.
	chrome = 4
)

// Scorer reports the running point total shown in the header.
type Scorer interface {
	Points() int
}

// jobDoneMsg carries a finished job back to the update loop.
type jobDoneMsg struct {
	job *terminal.Job
}

// Model is the bubbletea model of one terminal session.
type Model struct {
	ctx       context.Context
	term      *terminal.Interpreter
	scorer    Scorer
	maxPoints int
	siteURL   string

	viewport viewport.Model
	styles   Styles
	width    int
	height   int

	busy      bool
	navigated string
}

// New creates a Model around term. scorer may be nil.
func New(ctx context.Context, term *terminal.Interpreter, scorer Scorer, maxPoints int, siteURL string) Model {
	m := Model{
		ctx:       ctx,
		term:      term,
		scorer:    scorer,
		maxPoints: maxPoints,
		siteURL:   strings.TrimRight(siteURL, "/"),
		viewport:  viewport.New(80, 20),
		styles:    DefaultStyles(),
	}
	m.refresh()
	return m
}

// Navigated returns the page URL the session navigated to, or "".
func (m Model) Navigated() string {
	return m.navigated
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chrome)
		m.refresh()
		return m, nil

	case jobDoneMsg:
		return m.finish(msg.job)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.term.Close()
		return m, tea.Quit

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.busy {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyTab:
		m.term.TabComplete()
	case tea.KeyUp:
		m.term.HistoryUp()
	case tea.KeyDown:
		m.term.HistoryDown()
	case tea.KeyBackspace:
		input := []rune(m.term.Input())
		if len(input) > 0 {
			m.term.SetInput(string(input[:len(input)-1]))
		}
	case tea.KeySpace:
		m.term.SetInput(m.term.Input() + " ")
	case tea.KeyRunes:
		m.term.SetInput(m.term.Input() + string(msg.Runes))
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	job, err := m.term.Begin(m.term.Input())
	switch {
	case errors.Is(err, terminal.ErrClosed):
		return m, tea.Quit
	case err != nil:
		log.Debug().Err(err).Msg("Submission ignored")
		return m, nil
	}

	if !job.NeedsFetch() {
		return m.finish(job)
	}

	m.busy = true
	ctx := m.ctx
	return m, func() tea.Msg {
		job.Run(ctx)
		return jobDoneMsg{job: job}
	}
}

func (m Model) finish(job *terminal.Job) (tea.Model, tea.Cmd) {
	m.busy = false
	res, ok := m.term.Finish(m.ctx, job)
	if !ok {
		return m, nil
	}
	if res.Navigated != "" {
		m.navigated = m.siteURL + res.Navigated
	}
	m.refresh()
	if res.Closed {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.styles.Output.Render(strings.Join(m.term.Display(), "\n")))
	m.viewport.GotoBottom()
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	title := "Terminal"
	if m.scorer != nil {
		title += "  " + m.styles.Score.Render(fmt.Sprintf("🥚 %d/%d", m.scorer.Points(), m.maxPoints))
	}
	sb.WriteString(m.styles.Header.Width(max(m.width, 1)).Render(title))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.promptLine())

	if suggestions := m.term.Suggestions(); len(suggestions) > 0 {
		items := make([]string, 0, len(suggestions)+1)
		items = append(items, m.styles.Muted.Render("Suggestions:"))
		for _, s := range suggestions {
			items = append(items, m.styles.Suggestion.Render(s))
		}
		sb.WriteString("\n")
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(items, " ")))
	}
	return sb.String()
}

func (m Model) promptLine() string {
	prompt := m.styles.Prompt.Render(promptUser) + ":" + m.styles.Path.Render(m.term.Path().String()) + "$ "
	if m.busy {
		return prompt + m.styles.Muted.Render("…")
	}
	return prompt + m.styles.Input.Render(m.term.Input()) + cursor
}

// Run drives m until the session closes. It returns the page URL the
// session navigated to, if any.
func Run(ctx context.Context, m Model) (string, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", fmt.Errorf("run terminal: %w", err)
	}
	if fm, ok := final.(Model); ok {
		return fm.Navigated(), nil
	}
	return "", nil
}
