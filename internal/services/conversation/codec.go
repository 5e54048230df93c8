package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/iakadir/go-iakadir/internal/domain"
)

// Encode serializes an ordered conversation list.
func Encode(convs []domain.Conversation) ([]byte, error) {
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return json.Marshal(convs)
}

// Decode parses a list written by Encode. Records written before modes existed
// are assistant conversations; any other unknown mode fails the whole decode.
func Decode(data []byte) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].Mode == "" {
			convs[i].Mode = domain.ModeAssistant
		}
		if !convs[i].Mode.Valid() {
			return nil, fmt.Errorf("conversation %s: invalid mode %q", convs[i].ID, convs[i].Mode)
		}
		if convs[i].Messages == nil {
			convs[i].Messages = []domain.Message{}
		}
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}
