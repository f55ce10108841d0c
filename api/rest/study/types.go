package study

import "codeberg.org/studyai/server/internal/study"

// relay buffer for streamed completions
const relayBufferSize = 4 * 1024

// body of a successful quiz request
type QuizResponse struct {
	Type string      `json:"type"` // always "quiz"
	Data *study.Quiz `json:"data"`
}
