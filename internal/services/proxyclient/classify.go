package proxyclient

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/iakadir/go-iakadir/internal/domain"
)

// Category is the user-facing class of a failed request.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryQuota
)

func (c Category) String() string {
	if c == CategoryQuota {
		return "quota"
	}
	return "generic"
}

// Action distinguishes a first send from a regenerate for message wording.
type Action int

const (
	ActionSend Action = iota
	ActionRegenerate
)

var quotaKeywords = []string{
	"insufficient_quota",
	"exceeded your current quota",
	"quota",
	"billing",
	"plan and billing",
	"credit",
	"balance",
	"payment",
}

// maxFlattenDepth bounds recursion into JSON documents embedded in strings.
const maxFlattenDepth = 8

// ClassifyError reports whether err describes a quota or billing problem.
// It never panics; anything it cannot inspect is generic.
func ClassifyError(err error) (category Category) {
	defer func() {
		if r := recover(); r != nil {
			category = CategoryGeneric
		}
	}()
	if err == nil {
		return CategoryGeneric
	}

	text := strings.ToLower(searchableText(err))
	for _, keyword := range quotaKeywords {
		if strings.Contains(text, keyword) {
			return CategoryQuota
		}
	}
	return CategoryGeneric
}

// IsQuotaError is shorthand for ClassifyError(err) == CategoryQuota.
func IsQuotaError(err error) bool {
	return ClassifyError(err) == CategoryQuota
}

// searchableText is the text matched against quota keywords. Transport
// failures never reached the proxy and their messages carry the request
// URL, so they contribute nothing.
func searchableText(err error) string {
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return ""
	}

	var b strings.Builder
	b.WriteString(err.Error())

	var proxyErr *Error
	if errors.As(err, &proxyErr) {
		b.WriteByte(' ')
		flatten(&b, proxyErr.Body, 0)
	}
	return b.String()
}

// flatten writes every key and scalar of a JSON document, descending into
// string values that are themselves JSON.
func flatten(b *strings.Builder, raw string, depth int) {
	if depth > maxFlattenDepth || !gjson.Valid(raw) {
		return
	}
	flattenValue(b, gjson.Parse(raw), depth)
}

func flattenValue(b *strings.Builder, v gjson.Result, depth int) {
	switch {
	case v.IsObject():
		m := v.Map()
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(k)
			b.WriteByte(' ')
			flattenValue(b, m[k], depth)
		}
	case v.IsArray():
		for _, item := range v.Array() {
			flattenValue(b, item, depth)
		}
	case v.Type == gjson.String:
		s := v.String()
		b.WriteString(s)
		b.WriteByte(' ')
		if trimmed := strings.TrimSpace(s); strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			flatten(b, trimmed, depth+1)
		}
	default:
		b.WriteString(v.Raw)
		b.WriteByte(' ')
	}
}

const genericMessage = "Could not reach the assistant right now."

// UserMessage turns a failure into the text shown in place of the reply.
// The style is only used for image conversations.
func UserMessage(err error, mode domain.Mode, action Action, style domain.ImageStyle) string {
	if ClassifyError(err) != CategoryQuota {
		return genericMessage
	}

	regenerated := action == ActionRegenerate
	const outOfCredit = "but the API account is out of credit."
	switch mode {
	case domain.ModeSummarizeAudio:
		if regenerated {
			return "Your summary was regenerated and accepted, " + outOfCredit
		}
		return "Your summary was accepted, " + outOfCredit
	case domain.ModeGenerateImage:
		subject := "Your image"
		if style != "" {
			subject = fmt.Sprintf("Your %s image", strings.ToLower(style.Label()))
		}
		if regenerated {
			return subject + " was regenerated and accepted, " + outOfCredit
		}
		return subject + " was accepted, " + outOfCredit
	default:
		if regenerated {
			return "Your reply was regenerated and accepted, " + outOfCredit
		}
		return "Your message was accepted, " + outOfCredit
	}
}
