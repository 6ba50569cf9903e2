package llm

import (
	"context"
	"encoding/json"
)

// Message roles and content part types used on the wire.
const (
	RoleSystem = "system"
	RoleUser   = "user"

	PartText     = "text"
	PartImageURL = "image_url"
)

// ChatPayload is the chat/completions request body. It is built fresh for
// every call and not modified after it is sent.
type ChatPayload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float32  `json:"temperature,omitempty"`
}

// Message is one conversation turn.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is a text or image segment of a turn. ImageURL carries the
// data URI directly as a string.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// MarshalJSON emits exactly one payload key per part type, so an empty text
// fragment still serializes as {"type":"text","text":""}.
func (p ContentPart) MarshalJSON() ([]byte, error) {
	if p.Type == PartImageURL {
		return json.Marshal(struct {
			Type     string `json:"type"`
			ImageURL string `json:"image_url"`
		}{p.Type, p.ImageURL})
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{p.Type, p.Text})
}

// Completer sends a payload and returns the first choice's text content.
type Completer interface {
	Complete(ctx context.Context, payload ChatPayload) (string, error)
}
