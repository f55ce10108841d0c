package tui

import (
	"context"
	"strings"

	"codeberg.org/studyai/server/internal/client"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// rows taken by header, usage line, notice, input and help
	chromeHeight = 10
)

// returns a study screen for the chosen mode
func NewStudyModel(mode ModeOption, c *client.Client, session *client.Session, width, height int) *StudyModel {
	if width <= 0 {
		width = defaultWidth
	}

	if height <= 0 {
		height = defaultHeight
	}

	ti := textinput.New()
	ti.Placeholder = mode.Placeholder
	ti.Focus()
	ti.CharLimit = 0
	ti.Width = width - 10
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorLightGray)
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorWhite)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPurple)

	m := &StudyModel{
		mode:     mode,
		input:    ti,
		viewport: viewport.New(width-4, max(3, height-chromeHeight)),
		spinner:  sp,
		width:    width,
		height:   height,
		client:   c,
		session:  session,
		state:    client.StateIdle,
	}
	m.renderer = newRenderer(width - 8)

	return m
}

func newRenderer(wrap int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(20, wrap)),
	)
	if err != nil {
		return nil
	}

	return r
}

func (m *StudyModel) Init() tea.Cmd {
	return textinput.Blink
}

// cancels the in-flight request, if any; the partial answer stays on screen
func (m *StudyModel) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *StudyModel) Update(msg tea.Msg) (*StudyModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if m.inFlight {
				return m, nil
			}
			return m, m.submit()

		case "esc":
			if m.inFlight {
				m.Stop()
				return m, nil
			}
			return m, func() tea.Msg { return BackMsg{} }

		case "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case deltaMsg:
		m.text += msg.fragment
		m.refresh()
		return m, waitForEvent(m.events)

	case stateMsg:
		m.state = msg.state
		return m, waitForEvent(m.events)

	case resultMsg:
		return m, m.finish(msg.result)

	case spinner.TickMsg:
		if !m.inFlight {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 10
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(3, msg.Height-chromeHeight)
		m.renderer = newRenderer(msg.Width - 8)
		m.refresh()
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *StudyModel) submit() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())

	m.cancel = cancel
	m.inFlight = true
	m.text = ""
	m.notice = nil
	m.state = client.StateValidating
	m.refresh()

	m.events = startStudy(ctx, m.client, *m.session, m.mode.Mode, m.input.Value())

	return tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func (m *StudyModel) finish(result *client.Result) tea.Cmd {
	m.inFlight = false
	m.Stop()
	m.cancel = nil
	m.events = nil

	if result == nil {
		return nil
	}

	m.state = result.State
	m.notice = result.Notice
	if result.Text != "" {
		m.text = result.Text
	}
	m.refresh()

	if result.Quiz != nil {
		m.input.Reset()
		quiz := result.Quiz
		return func() tea.Msg { return EnterQuizMsg{Quiz: quiz} }
	}

	if result.State.Succeeded() {
		m.input.Reset()
	}

	return nil
}

func (m *StudyModel) refresh() {
	content := m.text
	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			content = rendered
		}
	}

	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m *StudyModel) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(strings.ToUpper(m.mode.Title)))
	b.WriteString(commandDescStyle.Render("- " + m.mode.Description))
	b.WriteString("\n")

	if line := usageLine(m.session.Account); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.text == "" && !m.inFlight {
		b.WriteString(borderStyle.Width(m.width - 4).Render(infoStyle.Render("type below and press enter to start.")))
	} else {
		b.WriteString(borderStyle.Width(m.width - 4).Render(m.viewport.View()))
	}
	b.WriteString("\n")

	if m.inFlight {
		b.WriteString(m.spinner.View())
		b.WriteString(infoStyle.Render(" " + statusText(m.state)))
		b.WriteString("\n")
	} else if m.notice != nil {
		b.WriteString(noticeView(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	help := "enter to send, esc to go back, pgup/pgdown to scroll."
	if m.inFlight {
		help = "esc to stop."
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func statusText(s client.State) string {
	switch s {
	case client.StateStreaming:
		return "writing..."
	default:
		return "thinking..."
	}
}

func noticeView(n *client.Notice) string {
	style := infoStyle
	if n.Level == client.NoticeError {
		style = errorStyle
	}

	return style.Render(n.Title) + " " + infoStyle.Render(n.Message)
}
