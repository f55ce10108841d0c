package tui

import (
	"strings"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/study"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var modeOptions = []ModeOption{
	{
		Mode:        study.ModeExplain,
		Title:       "Explain Topic",
		Description: "get a simple, clear explanation of any topic",
		Placeholder: "enter a topic you want to understand better...",
	},
	{
		Mode:        study.ModeSummarize,
		Title:       "Summarize Notes",
		Description: "condense your notes into key points",
		Placeholder: "paste your notes here to get a summary...",
	},
	{
		Mode:        study.ModeQuiz,
		Title:       "Practice Questions",
		Description: "generate five questions to test yourself",
		Placeholder: "enter a topic to generate practice questions...",
	},
	{
		Mode:        study.ModeFlashcards,
		Title:       "Create Flashcards",
		Description: "turn your material into study flashcards",
		Placeholder: "enter content to convert into flashcards...",
	},
}

// returns a new mode selection screen
func NewWelcome(account *accounts.Snapshot) *Welcome {
	return &Welcome{
		modes:   modeOptions,
		account: account,
	}
}

func (m *Welcome) Update(msg tea.Msg) (*Welcome, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.modes)-1 {
			m.cursor++
		}
	case "enter":
		selected := m.modes[m.cursor]
		return m, func() tea.Msg {
			return EnterStudyMsg{Mode: selected}
		}
	case "q":
		return m, tea.Quit
	}

	return m, nil
}

func (m *Welcome) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(logo))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("your AI study assistant"))
	b.WriteString("\n\n")

	if line := usageLine(m.account); line != "" {
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Render("what would you like to do?"))
	b.WriteString("\n\n")

	for i, option := range m.modes {
		style := menuItemStyle
		cursor := "  "
		if i == m.cursor {
			style = menuItemSelectedStyle
			cursor = "> "
		}

		b.WriteString(style.Render(cursor + option.Title))
		b.WriteString(commandDescStyle.Render("- " + option.Description))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ to choose, enter to select, q to quit."))

	return b.String()
}
