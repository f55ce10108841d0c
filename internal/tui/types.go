package tui

import (
	"context"

	"codeberg.org/studyai/server/internal/accounts"
	"codeberg.org/studyai/server/internal/client"
	"codeberg.org/studyai/server/internal/study"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

// represents the current screen of the TUI
type AppState int

const (
	StateWelcome AppState = iota
	StateStudy
	StateQuiz
)

// main TUI application model
type Model struct {
	state   AppState
	width   int
	height  int
	err     error
	client  *client.Client
	session *client.Session
	welcome *Welcome
	study   *StudyModel
	quiz    *QuizModel
}

// mode selection screen
type Welcome struct {
	modes   []ModeOption
	cursor  int
	account *accounts.Snapshot
}

// a selectable study mode
type ModeOption struct {
	Mode        study.Mode
	Title       string
	Description string
	Placeholder string
}

// input and streamed answer for one mode
type StudyModel struct {
	mode     ModeOption
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	width    int
	height   int

	client  *client.Client
	session *client.Session

	text     string
	state    client.State
	notice   *client.Notice
	inFlight bool
	cancel   context.CancelFunc
	events   <-chan any
}

// interactive quiz screen
type QuizModel struct {
	quiz      *study.Quiz
	current   int
	answers   map[int]string
	submitted bool
	score     study.Score
	width     int
}

// sent when a fatal error occurs
type ErrorMsg struct {
	err error
}

// sent to open the study screen for a mode
type EnterStudyMsg struct {
	Mode ModeOption
}

// sent to open the quiz screen
type EnterQuizMsg struct {
	Quiz *study.Quiz
}

// sent to return to mode selection
type BackMsg struct{}

// carries a refreshed account snapshot
type AccountMsg struct {
	account *accounts.Snapshot
	err     error
}

// one streamed fragment
type deltaMsg struct {
	fragment string
}

// request state change
type stateMsg struct {
	state client.State
}

// end of a request cycle; account is the session snapshot after the cycle
type resultMsg struct {
	result  *client.Result
	account *accounts.Snapshot
}
