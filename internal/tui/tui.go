package tui

import (
	"fmt"

	"codeberg.org/studyai/server/internal/client"
	tea "github.com/charmbracelet/bubbletea"
)

func NewApp(c *client.Client, session *client.Session) *Model {
	return &Model{
		state:   StateWelcome,
		client:  c,
		session: session,
		welcome: NewWelcome(session.Account),
	}
}

func (m *Model) Init() tea.Cmd {
	return fetchAccount(m.client, *m.session)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// stop any in-flight request before leaving
			if m.study != nil {
				m.study.Stop()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ErrorMsg:
		m.err = msg.err
		return m, nil

	case AccountMsg:
		if msg.err == nil && msg.account != nil {
			m.session.Account = msg.account
			m.welcome.account = msg.account
		}
		return m, nil

	case resultMsg:
		// the request ran against a copy of the session; adopt its refreshed snapshot
		if msg.account != nil {
			m.session.Account = msg.account
			m.welcome.account = msg.account
		}

	case EnterStudyMsg:
		m.study = NewStudyModel(msg.Mode, m.client, m.session, m.width, m.height)
		m.state = StateStudy
		return m, m.study.Init()

	case EnterQuizMsg:
		m.quiz = NewQuizModel(msg.Quiz, m.width)
		m.state = StateQuiz
		return m, nil

	case BackMsg:
		m.state = StateWelcome
		m.welcome.account = m.session.Account
		return m, fetchAccount(m.client, *m.session)
	}

	switch m.state {
	case StateWelcome:
		var cmd tea.Cmd
		m.welcome, cmd = m.welcome.Update(msg)
		return m, cmd

	case StateStudy:
		var cmd tea.Cmd
		m.study, cmd = m.study.Update(msg)
		return m, cmd

	case StateQuiz:
		var cmd tea.Cmd
		m.quiz, cmd = m.quiz.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

func (m *Model) View() string {
	if m.err != nil {
		return errorView(m.err)
	}

	switch m.state {
	case StateWelcome:
		return m.welcome.View()

	case StateStudy:
		return m.study.View()

	case StateQuiz:
		return m.quiz.View()

	default:
		return "Unknown state"
	}
}

func errorView(err error) string {
	return fmt.Sprintf("\n  Error: %v\n\n  Press Ctrl+C to exit\n", err)
}
