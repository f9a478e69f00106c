package lumiere

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Reply
	}{
		{
			name:    "structured",
			content: `{"object":"lamp","response":"Ouch, watch it!"}`,
			want:    Reply{Kind: ReplyStructured, Object: "lamp", Text: "Ouch, watch it!"},
		},
		{
			name:    "structured with whitespace",
			content: "\n  {\"object\": \" lamp \", \"response\": \"Hello!\"}  \n",
			want:    Reply{Kind: ReplyStructured, Object: "lamp", Text: "Hello!"},
		},
		{
			name:    "code fence",
			content: "```json\n{\"object\":\"mug\",\"response\":\"Tea time!\"}\n```",
			want:    Reply{Kind: ReplyStructured, Object: "mug", Text: "Tea time!"},
		},
		{
			name:    "structured without object",
			content: `{"response":"Who said that?"}`,
			want:    Reply{Kind: ReplyStructured, Text: "Who said that?"},
		},
		{
			name:    "free text",
			content: "  Ah, a visitor!  ",
			want:    Reply{Kind: ReplyFreeText, Text: "Ah, a visitor!"},
		},
		{
			name:    "json without response",
			content: `{"object":"lamp"}`,
			want:    Reply{Kind: ReplyStructured, Object: "lamp"},
		},
		{
			name:    "json with empty response",
			content: `{"object":"lamp","response":""}`,
			want:    Reply{Kind: ReplyStructured, Object: "lamp"},
		},
		{
			name:    "json string",
			content: `"just words"`,
			want:    Reply{Kind: ReplyFreeText, Text: `"just words"`},
		},
		{
			name:    "json null",
			content: `null`,
			want:    Reply{Kind: ReplyFreeText, Text: `null`},
		},
		{
			name:    "truncated json",
			content: `{"object":"lamp","respo`,
			want:    Reply{Kind: ReplyFreeText, Text: `{"object":"lamp","respo`},
		},
		{
			name:    "empty",
			content: "",
			want:    Reply{Kind: ReplyFreeText},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReply(tt.content))
		})
	}
}

func TestReplyKindString(t *testing.T) {
	assert.Equal(t, "structured", ReplyStructured.String())
	assert.Equal(t, "free_text", ReplyFreeText.String())
	assert.Equal(t, "unknown", ReplyKind(9).String())
}
