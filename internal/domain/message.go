// File: internal/domain/message.go
package domain

// Placeholder texts inserted while a request is in flight.
const (
	PlaceholderText = "…"
	GeneratingText  = "Generating…"
)

// MessageKind decides rendering and preview derivation.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindImageResult MessageKind = "imageResult"
)

// Message is a single entry of a conversation.
type Message struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	IsUser     bool        `json:"isUser"`
	Kind       MessageKind `json:"kind"`
	ImageStyle *ImageStyle `json:"imageStyle,omitempty"`
	ImageURL   *string     `json:"imageURL,omitempty"`
}

// IsPlaceholder reports whether the message still holds an in-progress sentinel.
func (m Message) IsPlaceholder() bool {
	return IsPlaceholderText(m.Text)
}

// IsPlaceholderText reports whether text is one of the in-progress sentinels.
func IsPlaceholderText(text string) bool {
	return text == PlaceholderText || text == GeneratingText
}

// CloneMessages deep-copies a message list, including optional pointer fields.
func CloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	for i, m := range in {
		out[i] = m
		if m.ImageStyle != nil {
			style := *m.ImageStyle
			out[i].ImageStyle = &style
		}
		if m.ImageURL != nil {
			url := *m.ImageURL
			out[i].ImageURL = &url
		}
	}
	return out
}
