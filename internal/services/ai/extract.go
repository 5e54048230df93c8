package ai

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractOutputText pulls the reply out of a text-generation response.
//
// The aggregated top-level output_text wins when present. Otherwise the
// output items are scanned in order and the output_text fragments of the
// first item that has any are joined with newlines.
func ExtractOutputText(body []byte) string {
	if v := gjson.GetBytes(body, "output_text"); v.Exists() && v.Type != gjson.Null {
		return v.String()
	}

	output := gjson.GetBytes(body, "output")
	if !output.IsArray() {
		return ""
	}
	for _, item := range output.Array() {
		content := item.Get("content")
		if !content.IsArray() {
			continue
		}
		var parts []string
		for _, fragment := range content.Array() {
			text := fragment.Get("text")
			if fragment.Get("type").String() == "output_text" && text.Type == gjson.String {
				parts = append(parts, text.String())
			}
		}
		if joined := strings.Join(parts, "\n"); joined != "" {
			return joined
		}
	}
	return ""
}

// ExtractTranscript returns the text field of a transcription response.
func ExtractTranscript(body []byte) string {
	if v := gjson.GetBytes(body, "text"); v.Type == gjson.String {
		return v.String()
	}
	return ""
}
