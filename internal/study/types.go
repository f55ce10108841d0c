package study

import "errors"

// study mode requested by the client
type Mode string

const (
	ModeExplain    Mode = "explain"
	ModeSummarize  Mode = "summarize"
	ModeQuiz       Mode = "quiz"
	ModeFlashcards Mode = "flashcards"
)

// every supported mode, in display order
var Modes = []Mode{ModeExplain, ModeSummarize, ModeQuiz, ModeFlashcards}

// how the upstream answer is delivered for a mode
type Shape int

const (
	ShapeStream Shape = iota
	ShapeStructured
)

// account tier used to pick prompt augmentation and model budget
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// number of questions every accepted quiz carries
const QuizQuestionCount = 5

var (
	ErrUnknownMode = errors.New("unknown study mode")
	ErrInvalidQuiz = errors.New("invalid quiz payload")
)

// structured quiz returned for quiz mode
type Quiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

type Question struct {
	Question      string  `json:"question"`
	Options       Options `json:"options"`
	CorrectAnswer string  `json:"correctAnswer"`
	Explanation   string  `json:"explanation"`
}

type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// result of grading a set of answers against a quiz
type Score struct {
	Correct int
	Total   int
	Percent int
	Verdict string
}
