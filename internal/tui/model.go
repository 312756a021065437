package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"videoqa/internal/domain"
	"videoqa/internal/service"
)

// EnginePort is the TUI-facing subset of the retrieval engine.
type EnginePort interface {
	Ask(ctx context.Context, query string, topK int) (*service.Answer, error)
	Health() service.SystemHealth
}

// Model is the Bubble Tea model for the interactive query session.
type Model struct {
	engine   EnginePort
	input    textinput.Model
	viewport viewport.Model
	results  []domain.SearchResult
	status   string
	banner   string
	cursor   int
	topK     int
	ready    bool
}

// New creates a new TUI model instance.
func New(engine EnginePort, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the videos and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		engine:   engine,
		input:    ti,
		viewport: viewport.New(0, 0),
		topK:     topK,
		banner:   modeBanner(engine.Health()),
		status:   "Ready. Type a question to search the transcripts.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // banner+header, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = maxInt(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				answer, err := m.engine.Ask(context.Background(), q, m.topK)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.results = nil
				} else {
					m.status = fmt.Sprintf("Top %d chunks for %q", len(answer.Results), q)
					m.results = answer.Results
					m.cursor = 0
				}
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Video Transcript Search")
	banner := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.banner)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + banner + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Chunk %d/%d  id=%s  distance=%.3f", m.cursor+1, len(m.results), r.ID, r.Distance)
	return title + "\n\n" + r.Text
}

// modeBanner surfaces degraded operation so reduced answer quality is not a
// mystery to the operator.
func modeBanner(h service.SystemHealth) string {
	parts := []string{
		fmt.Sprintf("embedder: %s (%s)", h.EmbedderName, h.EmbedderMode),
		fmt.Sprintf("index: %s (%s, %d chunks)", h.Store.Collection, h.Store.Mode, h.Store.Count),
	}
	return strings.Join(parts, "  |  ")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
