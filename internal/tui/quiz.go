package tui

import (
	"fmt"
	"strings"

	"codeberg.org/studyai/server/internal/study"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// returns an unanswered quiz screen
func NewQuizModel(quiz *study.Quiz, width int) *QuizModel {
	if width <= 0 {
		width = defaultWidth
	}

	return &QuizModel{
		quiz:    quiz,
		answers: make(map[int]string, len(quiz.Questions)),
		width:   width,
	}
}

func (m *QuizModel) answered() int {
	return len(m.answers)
}

func (m *QuizModel) complete() bool {
	return m.answered() == len(m.quiz.Questions)
}

func (m *QuizModel) Update(msg tea.Msg) (*QuizModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		key := msg.String()

		if m.submitted {
			if key == "enter" || key == "esc" {
				return m, func() tea.Msg { return BackMsg{} }
			}
			return m, nil
		}

		switch key {
		case "left", "h":
			if m.current > 0 {
				m.current--
			}
		case "right", "l":
			if m.current < len(m.quiz.Questions)-1 {
				m.current++
			}
		case "enter":
			if m.complete() {
				m.score = study.Grade(m.quiz, m.answers)
				m.submitted = true
			}
		case "esc":
			return m, func() tea.Msg { return BackMsg{} }
		default:
			label := strings.ToUpper(key)
			if study.IsAnswerLabel(label) {
				m.answers[m.current] = label
				if m.current < len(m.quiz.Questions)-1 {
					m.current++
				}
			}
		}
	}

	return m, nil
}

func (m *QuizModel) View() string {
	if m.submitted {
		return m.resultsView()
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render(m.quiz.Title))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("%d of %d answered", m.answered(), len(m.quiz.Questions))))
	b.WriteString("\n\n")

	q := m.quiz.Questions[m.current]
	b.WriteString(lipgloss.NewStyle().Foreground(colorLightGray).Render(fmt.Sprintf("question %d", m.current+1)))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Width(m.width - 4).Render(q.Question))
	b.WriteString("\n\n")

	for _, label := range study.AnswerLabels() {
		style := menuItemStyle
		cursor := "  "
		if m.answers[m.current] == label {
			style = menuItemSelectedStyle
			cursor = "> "
		}

		b.WriteString(style.Render(fmt.Sprintf("%s%s) %s", cursor, label, q.Options.Get(label))))
		b.WriteString("\n")
	}

	help := "a-d to answer, ←/→ to move, esc to leave."
	if m.complete() {
		help = "enter to submit, a-d to change an answer, ←/→ to move."
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *QuizModel) resultsView() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(m.quiz.Title))
	b.WriteString("\n\n")
	b.WriteString(successStyle.Render(m.score.Verdict))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("you scored %d/%d (%d%%)", m.score.Correct, m.score.Total, m.score.Percent))
	b.WriteString("\n\n")

	for i, q := range m.quiz.Questions {
		mark := successStyle.Render("✓")
		if m.answers[i] != q.CorrectAnswer {
			mark = errorStyle.Render("✗")
		}

		b.WriteString(fmt.Sprintf("%s %d. %s\n", mark, i+1, q.Question))
		b.WriteString(commandDescStyle.Render(fmt.Sprintf("your answer: %s, correct: %s) %s", m.answers[i], q.CorrectAnswer, q.Options.Get(q.CorrectAnswer))))
		b.WriteString("\n")
		if q.Explanation != "" {
			b.WriteString(infoStyle.Width(m.width - 4).PaddingLeft(1).Render(q.Explanation))
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render("enter to go back."))

	return b.String()
}
