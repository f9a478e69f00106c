package lumiere

import (
	"encoding/json"
	"strings"
)

// ReplyKind distinguishes how a model answer was understood.
type ReplyKind int

const (
	// ReplyStructured is a {"object","response"} JSON answer.
	ReplyStructured ReplyKind = iota
	// ReplyFreeText is any other answer, spoken verbatim.
	ReplyFreeText
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyStructured:
		return "structured"
	case ReplyFreeText:
		return "free_text"
	default:
		return "unknown"
	}
}

// Reply is the responder's interpretation of a model answer. Object is
// empty for free text.
type Reply struct {
	Kind   ReplyKind
	Object string
	Text   string
}

// ParseReply reads a model answer. Any JSON object is structured, even
// when "response" is missing or empty; anything else is free text carrying
// the raw trimmed content. A surrounding markdown code fence is ignored.
func ParseReply(content string) Reply {
	raw := strings.TrimSpace(content)
	body := stripFence(raw)

	var parsed struct {
		Object   string `json:"object"`
		Response string `json:"response"`
	}
	if strings.HasPrefix(body, "{") && json.Unmarshal([]byte(body), &parsed) == nil {
		return Reply{
			Kind:   ReplyStructured,
			Object: strings.TrimSpace(parsed.Object),
			Text:   strings.TrimSpace(parsed.Response),
		}
	}
	return Reply{Kind: ReplyFreeText, Text: raw}
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}
