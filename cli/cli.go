// cli/cli.go
// Package cli provides the interactive terminal chat for nabin.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/nabin/internal/assistant"
	"github.com/mwiater/nabin/internal/catalog"
	"github.com/mwiater/nabin/internal/chat"
	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/providers"
)

// backend is the part of chat.Pipeline the UI drives.
type backend interface {
	Ask(ctx context.Context, s *chat.Session, query string) (chat.Reply, error)
	Reindex(ctx context.Context) (int, string)
	Assistant() *assistant.Assistant
}

const missingKeyWarning = "Vui lòng cấu hình API Key trước nha! (config generation.apiKey, env hoặc --prompt-key)"

// model is the main application model for the Bubble Tea UI.
type model struct {
	ctx              context.Context
	backend          backend
	session          *chat.Session
	assistantName    string
	userName         string
	isLoading        bool
	loadingLabel     string
	status           string
	statusIsError    bool
	textArea         textarea.Model
	viewport         viewport.Model
	spinner          spinner.Model
	width, height    int
	requestStartTime time.Time
}

// initialModel creates and initializes a new model with default values.
func initialModel(ctx context.Context, b backend, s *chat.Session, assistantName, userName string) *model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "Gõ vào đây nha... (ví dụ: Tìm quán cafe yên tĩnh làm việc)"
	ta.Focus()
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return &model{
		ctx:           ctx,
		backend:       b,
		session:       s,
		assistantName: assistantName,
		userName:      userName,
		spinner:       sp,
		textArea:      ta,
		viewport:      viewport.New(80, 10),
	}
}

// answerMsg carries a completed reply.
type answerMsg struct{ reply chat.Reply }

// answerErr is sent when a question could not be answered.
type answerErr struct{ error }

// reindexMsg reports the outcome of a reindex.
type reindexMsg struct {
	count   int
	message string
}

// tickMsg is a message sent at regular intervals, used for the loading timer.
type tickMsg time.Time

func askCmd(ctx context.Context, b backend, s *chat.Session, query string) tea.Cmd {
	return func() tea.Msg {
		reply, err := b.Ask(ctx, s, query)
		if err != nil {
			return answerErr{error: err}
		}
		return answerMsg{reply: reply}
	}
}

func reindexCmd(ctx context.Context, b backend) tea.Cmd {
	return func() tea.Msg {
		n, msg := b.Reindex(ctx)
		return reindexMsg{count: n, message: msg}
	}
}

// tickCmd creates a Bubble Tea command that sends a tickMsg at a regular interval.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the Bubble Tea model and returns a command to start the spinner animation.
func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *model) startLoading(label string) {
	m.isLoading = true
	m.loadingLabel = label
	m.requestStartTime = time.Now()
	m.status = ""
	m.statusIsError = false
}

func (m *model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusIsError = isErr
}

// Update is the central update function for the Bubble Tea model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+r":
			if m.isLoading {
				return m, nil
			}
			m.startLoading("Đang học dữ liệu mới...")
			return m, tea.Batch(m.spinner.Tick, reindexCmd(m.ctx, m.backend), tickCmd())
		case "ctrl+l":
			if m.isLoading {
				return m, nil
			}
			m.session.Clear()
			m.setStatus("Chat history cleared", false)
			return m, nil
		case "enter":
			if m.isLoading {
				return m, nil
			}
			query := strings.TrimSpace(m.textArea.Value())
			if query == "" {
				return m, nil
			}
			if !m.backend.Assistant().Ready() {
				m.setStatus(missingKeyWarning, true)
				return m, nil
			}
			m.textArea.Reset()
			m.startLoading(fmt.Sprintf("%s đang suy nghĩ...", assistant.DisplayName(m.assistantName)))
			return m, tea.Batch(m.spinner.Tick, askCmd(m.ctx, m.backend, m.session, query), tickCmd())
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textArea.SetWidth(max(msg.Width-3, 10))
		headerHeight := 3
		footerHeight := 4
		m.viewport.Width = m.chatWidth()
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 3)

	case answerMsg:
		m.isLoading = false
		m.textArea.Focus()
		m.viewport.GotoBottom()
		logging.LogEvent("[TUI] Answered with %d venues in context", len(msg.reply.Result.Hits))
		return m, nil

	case answerErr:
		m.isLoading = false
		m.textArea.Focus()
		m.setStatus(describeError(msg.error), true)
		return m, nil

	case reindexMsg:
		m.isLoading = false
		m.textArea.Focus()
		if msg.message == catalog.SuccessMessage {
			m.setStatus(fmt.Sprintf("Loaded %d places", msg.count), false)
		} else {
			m.setStatus("Reindex failed: "+msg.message, true)
		}
		return m, nil

	case tickMsg:
		if m.isLoading {
			return m, tickCmd()
		}
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.isLoading {
		m.textArea, cmd = m.textArea.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func describeError(err error) string {
	var perr *assistant.ProviderError
	switch {
	case errors.Is(err, assistant.ErrMissingCredential):
		return missingKeyWarning
	case errors.As(err, &perr):
		return fmt.Sprintf("%s error: %v", perr.Provider, perr.Err)
	default:
		return "Error: " + err.Error()
	}
}

// chatWidth is the width of the conversation column; the rest holds results.
func (m *model) chatWidth() int {
	if m.width < 60 {
		return m.width
	}
	return m.width * 2 / 3
}

func (m *model) resultsWidth() int {
	return max(m.width-m.chatWidth()-1, 0)
}

// View renders the application's UI.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var builder strings.Builder

	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	title := fmt.Sprintf("💖 %s - Trợ lý của %s", m.assistantName, m.userName)
	providerInfo := fmt.Sprintf("Provider: %s", m.backend.Assistant().Provider())
	builder.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(title),
		headerStyle.MarginLeft(1).Render(providerInfo),
	))
	if !m.backend.Assistant().Ready() {
		warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		builder.WriteString("\n" + warnStyle.Render("⚠ "+missingKeyWarning))
	}
	builder.WriteString("\n\n")

	m.viewport.SetContent(m.renderHistory())
	body := m.viewport.View()
	if pane := m.renderResults(); pane != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", pane)
	}
	builder.WriteString(body)

	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		builder.WriteString(fmt.Sprintf("\n%s %s %ss", m.spinner.View(), m.loadingLabel, timer))
	} else {
		builder.WriteString("\n" + m.textArea.View())
	}

	if m.status != "" {
		color := lipgloss.Color("40")
		if m.statusIsError {
			color = lipgloss.Color("9")
		}
		builder.WriteString("\n" + lipgloss.NewStyle().Foreground(color).Render(m.status))
	}

	help := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render("(enter send · ctrl+r reindex · ctrl+l clear · esc quit)")
	builder.WriteString("\n" + help)

	return builder.String()
}

func (m *model) renderHistory() string {
	var historyBuilder strings.Builder
	userStyle := lipgloss.NewStyle().Bold(true)
	assistantStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))

	for _, turn := range m.session.Turns() {
		var role string
		if turn.Role == providers.RoleAssistant {
			role = assistantStyle.Render(assistant.DisplayName(m.assistantName) + ": ")
		} else {
			role = userStyle.Render("Anh: ")
		}
		wrappedContent := lipgloss.NewStyle().Width(max(m.chatWidth()-lipgloss.Width(role)-2, 10)).Render(turn.Content)
		historyBuilder.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, role, wrappedContent) + "\n")
	}
	return historyBuilder.String()
}

// renderResults lists the venues behind the last answer.
func (m *model) renderResults() string {
	width := m.resultsWidth()
	if width < 20 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	inner := width - 2
	wrap := lipgloss.NewStyle().Width(inner)
	clip := lipgloss.NewStyle().MaxWidth(inner)

	var b strings.Builder
	b.WriteString(titleStyle.Render("📍 Last results") + "\n")
	result := m.session.LastResult()
	if result == nil {
		b.WriteString(mutedStyle.Render("No results yet"))
	} else {
		for i, hit := range result.Hits {
			b.WriteString(wrap.Render(fmt.Sprintf("%d. %s", i+1, hit.Metadata.Name)) + "\n")
			b.WriteString(mutedStyle.Inherit(wrap).Render(hit.Metadata.Address) + "\n")
			b.WriteString(mutedStyle.Inherit(clip).Render(hit.Metadata.Map) + "\n")
		}
	}
	return lipgloss.NewStyle().Width(width).Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1).Render(b.String())
}

// NewStartGUI returns a chat.StartGUI that runs the TUI with the persona names.
func NewStartGUI(assistantName, userName string) chat.StartGUI {
	return func(ctx context.Context, p *chat.Pipeline, s *chat.Session, cancel context.CancelFunc) error {
		defer func() {
			logging.LogEvent("Cancelling all running requests...")
			cancel()
		}()
		return run(ctx, p, s, assistantName, userName)
	}
}

func run(ctx context.Context, b backend, s *chat.Session, assistantName, userName string) error {
	m := initialModel(ctx, b, s, assistantName, userName)
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
