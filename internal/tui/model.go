package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cdfinder/internal/capture"
	"cdfinder/internal/catalog"
	"cdfinder/internal/services/llm"
	"cdfinder/internal/session"
)

// Session is the TUI-facing subset of the session orchestrator.
type Session interface {
	SetQuery(query string)
	Query() string
	Results() []catalog.Record
	CanSearchWithAI() bool
	AIAvailable() bool
	Busy() bool
	State() session.State
	Catalog() *catalog.Catalog
	LastNotice() (session.Notice, bool)
	Refresh(ctx context.Context) error
	ProcessImage(ctx context.Context, img llm.Image) (session.Outcome, error)
	SearchWithAI(ctx context.Context) (catalog.Record, error)
	Capture(ctx context.Context, camera capture.Camera) (session.Outcome, error)
}

type inputMode int

const (
	modeQuery inputMode = iota
	modeImage
)

// doneMsg reports that a background session call finished.
type doneMsg struct {
	status  string
	isError bool
}

// Model is the Bubble Tea model for an interactive lookup session.
type Model struct {
	ctx      context.Context
	session  Session
	camera   capture.Camera
	input    textinput.Model
	viewport viewport.Model
	mode     inputMode
	status   string
	isError  bool
	working  bool
	ready    bool
	query    string
}

// New creates a model. camera may be nil, which hides live capture.
func New(ctx context.Context, s Session, camera capture.Camera) Model {
	ti := textinput.New()
	ti.Prompt = "search> "
	ti.Placeholder = "Type a model, e.g. CDP-227ESD"
	ti.Focus()
	ti.CharLimit = 120
	ti.SetValue(s.Query())
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		session:  s,
		camera:   camera,
		input:    ti,
		viewport: vp,
		query:    s.Query(),
		status:   "Loading catalog...",
		working:  true,
	}
}

// Init starts the cursor blink and the initial catalog load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshCmd())
}

func (m Model) refreshCmd() tea.Cmd {
	return m.run(func(ctx context.Context, s Session) error {
		return s.Refresh(ctx)
	})
}

func (m Model) imageCmd(ref string) tea.Cmd {
	return m.run(func(ctx context.Context, s Session) error {
		img, err := capture.Load(ref)
		if err != nil {
			return err
		}
		_, err = s.ProcessImage(ctx, img)
		return err
	})
}

func (m Model) captureCmd() tea.Cmd {
	camera := m.camera
	return m.run(func(ctx context.Context, s Session) error {
		_, err := s.Capture(ctx, camera)
		return err
	})
}

func (m Model) searchAICmd() tea.Cmd {
	return m.run(func(ctx context.Context, s Session) error {
		_, err := s.SearchWithAI(ctx)
		return err
	})
}

// run executes call off the UI goroutine and turns the newest session
// notice, or the error, into a status line.
func (m Model) run(call func(context.Context, Session) error) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		start := time.Now()
		err := call(ctx, s)
		if notice, ok := s.LastNotice(); ok && !notice.At.Before(start) {
			return doneMsg{status: notice.Message, isError: notice.Kind.IsError()}
		}
		if err != nil {
			return doneMsg{status: "Error: " + err.Error(), isError: true}
		}
		return doneMsg{status: "Ready."}
	}
}

// Update handles key, window, and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + hints, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderResults())
		return m, nil
	case doneMsg:
		m.working = false
		m.syncQuery()
		m.status, m.isError = msg.status, msg.isError
		m.viewport.SetContent(m.renderResults())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "ctrl+r":
			if m.working {
				return m, nil
			}
			m.working = true
			m.setStatus("Refreshing catalog...")
			return m, m.refreshCmd()
		case "ctrl+o":
			m.toggleMode()
			return m, nil
		case "ctrl+a":
			if m.working || !m.session.CanSearchWithAI() {
				return m, nil
			}
			m.working = true
			m.setStatus(fmt.Sprintf("Searching specifications for %q...", m.session.Query()))
			return m, m.searchAICmd()
		case "ctrl+p":
			if m.working || m.camera == nil {
				return m, nil
			}
			m.working = true
			m.setStatus("Capturing from camera...")
			return m, m.captureCmd()
		case "enter":
			if m.mode != modeImage {
				return m, nil
			}
			ref := strings.TrimSpace(m.input.Value())
			if ref == "" || m.working {
				return m, nil
			}
			m.working = true
			m.toggleMode()
			m.setStatus("Identifying image...")
			return m, m.imageCmd(ref)
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeQuery && m.input.Value() != m.query {
		m.query = m.input.Value()
		m.session.SetQuery(m.query)
		m.viewport.SetContent(m.renderResults())
		m.viewport.GotoTop()
	}
	return m, cmd
}

func (m *Model) toggleMode() {
	if m.mode == modeQuery {
		m.mode = modeImage
		m.input.Prompt = "image> "
		m.input.Placeholder = "Path to a photo or a data:image URL, then Enter"
		m.input.SetValue("")
		return
	}
	m.mode = modeQuery
	m.input.Prompt = "search> "
	m.input.Placeholder = "Type a model, e.g. CDP-227ESD"
	m.input.SetValue(m.session.Query())
	m.query = m.input.Value()
}

func (m *Model) syncQuery() {
	m.query = m.session.Query()
	if m.mode == modeQuery {
		m.input.SetValue(m.query)
		m.input.CursorEnd()
	}
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.isError = false
}

// View renders the header, results, input box, and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("CD PLAYER SPEC FINDER") + "  " + m.indicators()
	hints := hintStyle.Render(m.hints())
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	style := statusStyle
	if m.isError {
		style = errorStyle
	}
	return header + "\n" + hints + "\n" + results + "\n" + input + "\n" + style.Render(m.status)
}

func (m Model) indicators() string {
	stats := m.session.Catalog().Stats()
	count := countStyle.Render(fmt.Sprintf("%d MODELS READY", stats.View))
	ai := aiOffStyle.Render("AI OFF")
	if m.session.AIAvailable() {
		ai = aiOnStyle.Render("AI ON")
	}
	state := ""
	if st := m.session.State(); st != session.StateIdle {
		state = "  " + hintStyle.Render(strings.ToUpper(st.String())+"...")
	}
	return count + "  " + ai + state
}

func (m Model) hints() string {
	parts := []string{"ctrl+r refresh", "ctrl+o image"}
	if m.camera != nil {
		parts = append(parts, "ctrl+p camera")
	}
	if m.session.CanSearchWithAI() {
		parts = append(parts, "ctrl+a search with AI")
	}
	parts = append(parts, "ctrl+c quit")
	return strings.Join(parts, " | ")
}

func (m Model) renderResults() string {
	results := m.session.Results()
	if len(results) == 0 {
		if strings.TrimSpace(m.session.Query()) == "" {
			return "Catalog is empty. Press ctrl+r to load it."
		}
		msg := fmt.Sprintf("No models match %q.", m.session.Query())
		if m.session.CanSearchWithAI() {
			msg += "\nPress ctrl+a to search with AI."
		}
		return msg
	}
	cards := make([]string, 0, len(results))
	for _, rec := range results {
		cards = append(cards, renderCard(rec))
	}
	return strings.Join(cards, "\n")
}

func renderCard(rec catalog.Record) string {
	badge := dbBadgeStyle.Render(rec.Origin.Badge())
	if rec.Origin == catalog.OriginGenerated {
		badge = aiBadgeStyle.Render(rec.Origin.Badge())
	}
	return labelStyle.Render(rec.Label) + "  " + badge + "\n" +
		"  DAC:   " + rec.DACOrDash() + "\n" +
		"  Laser: " + rec.LaserOrDash() + "\n"
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	countStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	aiOnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	aiOffStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dbBadgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	aiBadgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
)
