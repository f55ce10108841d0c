package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// classifies one line of an event stream
func ParseLine(line string) Frame {
	switch {
	case line == "":
		return Frame{Kind: KindBlank}
	case strings.HasPrefix(line, ":"):
		return Frame{Kind: KindComment}
	case !strings.HasPrefix(line, dataPrefix):
		return Frame{Kind: KindOther}
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneMarker {
		return Frame{Kind: KindDone}
	}

	return Frame{Kind: KindData, Payload: payload}
}

// extracts choices[0].delta.content from a chunk payload
// ok is false when the payload parsed but carried no text
func DeltaContent(payload string) (string, bool, error) {
	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return "", false, fmt.Errorf("failed to parse chunk: %w", err)
	}

	if len(c.Choices) == 0 || c.Choices[0].Delta.Content == nil {
		return "", false, nil
	}

	return *c.Choices[0].Delta.Content, true, nil
}

// turns a raw completion stream into ordered text fragments
type Decoder struct {
	framer *Framer
	done   bool
}

func NewDecoder() *Decoder {
	return &Decoder{framer: NewFramer()}
}

// reports whether the [DONE] sentinel has been seen
func (d *Decoder) Done() bool {
	return d.done
}

// consumes one chunk of bytes and returns the fragments it completed
// a data line that fails to parse is pushed back and processing of this
// chunk stops until more bytes arrive
func (d *Decoder) Feed(p []byte) ([]string, bool) {
	if d.done {
		return nil, true
	}

	d.framer.Write(p) //nolint:errcheck // framer writes never fail

	var fragments []string

	for {
		line, ok := d.framer.Next()
		if !ok {
			break
		}

		frame := ParseLine(line)

		if frame.Kind == KindDone {
			d.done = true
			d.framer.Rest()
			return fragments, true
		}

		if frame.Kind != KindData {
			continue
		}

		text, ok, err := DeltaContent(frame.Payload)
		if err != nil {
			d.framer.Unread(line)
			break
		}

		if ok {
			fragments = append(fragments, text)
		}
	}

	return fragments, false
}

// runs one best-effort pass over leftover buffered text after end of stream
// unparseable lines are skipped
func (d *Decoder) Flush() []string {
	if d.done {
		return nil
	}

	var fragments []string

	for _, line := range strings.Split(d.framer.Rest(), "\n") {
		frame := ParseLine(strings.TrimSuffix(line, "\r"))

		if frame.Kind == KindDone {
			d.done = true
			break
		}

		if frame.Kind != KindData {
			continue
		}

		text, ok, err := DeltaContent(frame.Payload)
		if err != nil || !ok {
			continue
		}

		fragments = append(fragments, text)
	}

	return fragments
}
