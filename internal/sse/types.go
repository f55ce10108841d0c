package sse

// classifies a single line of an event stream
type Kind int

const (
	KindBlank Kind = iota
	KindComment
	KindOther
	KindData
	KindDone
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// one classified line; Payload is only set for KindData
type Frame struct {
	Kind    Kind
	Payload string
}

// the subset of a chat completion chunk we read deltas from
type chunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}
