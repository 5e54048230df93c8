package domain

// DerivePreview computes the list-row preview of a conversation.
//
// Placeholder messages are dropped first. Image conversations prefer the
// last user prompt and fall back to the last remaining message of any
// author; every other mode uses the last remaining message.
func DerivePreview(messages []Message, mode Mode) string {
	candidates := make([]Message, 0, len(messages))
	for _, m := range messages {
		if !m.IsPlaceholder() {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	if mode == ModeGenerateImage {
		for i := len(candidates) - 1; i >= 0; i-- {
			if candidates[i].IsUser {
				return candidates[i].Text
			}
		}
	}
	return candidates[len(candidates)-1].Text
}
