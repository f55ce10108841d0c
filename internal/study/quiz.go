package study

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const (
	QuizToolName        = "create_quiz"
	QuizToolDescription = "Create a multiple choice quiz about the given topic"
)

var answerLabels = []string{"A", "B", "C", "D"}

// JSON schema for the quiz function parameters
func QuizSchema() map[string]any {
	optionProps := map[string]any{}
	for _, label := range answerLabels {
		optionProps[label] = map[string]any{"type": "string"}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short title for the quiz",
			},
			"questions": map[string]any{
				"type":     "array",
				"minItems": QuizQuestionCount,
				"maxItems": QuizQuestionCount,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":       "object",
							"properties": optionProps,
							"required":   answerLabels,
						},
						"correctAnswer": map[string]any{
							"type": "string",
							"enum": answerLabels,
						},
						"explanation": map[string]any{"type": "string"},
					},
					"required": []string{"question", "options", "correctAnswer", "explanation"},
				},
			},
		},
		"required": []string{"title", "questions"},
	}
}

// decodes and validates a structured quiz payload
func ParseQuiz(raw []byte) (*Quiz, error) {
	var quiz Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}

	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	return &quiz, nil
}

// checks question count, options and answer labels
func (q *Quiz) Validate() error {
	if len(q.Questions) != QuizQuestionCount {
		return fmt.Errorf("%w: expected %d questions, got %d", ErrInvalidQuiz, QuizQuestionCount, len(q.Questions))
	}

	for i, question := range q.Questions {
		if strings.TrimSpace(question.Question) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidQuiz, i+1)
		}

		for _, label := range answerLabels {
			if strings.TrimSpace(question.Options.Get(label)) == "" {
				return fmt.Errorf("%w: question %d is missing option %s", ErrInvalidQuiz, i+1, label)
			}
		}

		if !IsAnswerLabel(question.CorrectAnswer) {
			return fmt.Errorf("%w: question %d has correct answer %q", ErrInvalidQuiz, i+1, question.CorrectAnswer)
		}
	}

	return nil
}

// returns the option text for a label, or empty for unknown labels
func (o Options) Get(label string) string {
	switch label {
	case "A":
		return o.A
	case "B":
		return o.B
	case "C":
		return o.C
	case "D":
		return o.D
	}

	return ""
}

func IsAnswerLabel(label string) bool {
	for _, l := range answerLabels {
		if l == label {
			return true
		}
	}

	return false
}

// labels in display order
func AnswerLabels() []string {
	return append([]string(nil), answerLabels...)
}

// scores answers keyed by question index
func Grade(quiz *Quiz, answers map[int]string) Score {
	total := len(quiz.Questions)
	if total == 0 {
		return Score{Verdict: verdict(0)}
	}

	correct := 0
	for i, q := range quiz.Questions {
		if answers[i] == q.CorrectAnswer {
			correct++
		}
	}

	percent := int(math.Round(float64(correct) / float64(total) * 100))

	return Score{
		Correct: correct,
		Total:   total,
		Percent: percent,
		Verdict: verdict(percent),
	}
}

func verdict(percent int) string {
	switch {
	case percent == 100:
		return "Perfect Score!"
	case percent >= 80:
		return "Excellent Work!"
	case percent >= 60:
		return "Good Job!"
	case percent >= 40:
		return "Keep Practicing!"
	default:
		return "Don't Give Up!"
	}
}
