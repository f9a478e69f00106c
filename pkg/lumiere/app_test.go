package lumiere

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-lumiere/internal/log"
	"github.com/teslashibe/go-lumiere/pkg/inference"
	"github.com/teslashibe/go-lumiere/pkg/protocol"
	"github.com/teslashibe/go-lumiere/pkg/tts"
)

func newTestApp(t *testing.T, detector *fakeDetector, provider *chatScript) *App {
	t.Helper()
	cfg := validConfig()
	cfg.Voices = tts.VoiceRing{"voice-a", "voice-b"}
	cfg.PhotoTimeout = 2 * time.Second
	return newApp(cfg, provider.mock(), detector, nil, log.Discard())
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAIKey = ""

	_, err := NewApp(cfg, log.Discard())
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "OpenAIKey", cerr.Field)
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(validConfig(), log.Discard())
	require.NoError(t, err)
	assert.NotNil(t, app.Handler())
	assert.Zero(t, app.Hub().SessionCount())
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &fakeDetector{detect: labels("")}, &chatScript{})

	resp, err := app.Handler().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, Version, body.Version)
	assert.Zero(t, body.Sessions)
}

// TestSessionEndToEnd drives a full wake cycle and reply over a real
// WebSocket connection.
func TestSessionEndToEnd(t *testing.T) {
	script := &chatScript{respond: func(context.Context, *inference.ChatRequest) (string, error) {
		return `{"object":"lamp","response":"Ouch, watch it!"}`, nil
	}}
	app := newTestApp(t, &fakeDetector{detect: labels("mug, lamp")}, script)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Handler().Listener(ln)
	t.Cleanup(func() { _ = app.Handler().Shutdown() })

	header := http.Header{}
	header.Set("Authorization", "Bearer platform-key")
	header.Set("X-Package-Name", "com.example.lumiere")
	ws, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/session/user-42", header)
	require.NoError(t, err)
	defer ws.Close()

	send := func(msg *protocol.Message) {
		data, err := msg.Bytes()
		require.NoError(t, err)
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, data))
	}
	read := func() *protocol.Message {
		ws.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		msg, err := protocol.ParseMessage(data)
		require.NoError(t, err)
		return msg
	}
	expectSpeak := func(text string) *protocol.SpeakData {
		msg := read()
		require.Equal(t, protocol.TypeSpeak, msg.Type)
		data, err := msg.GetSpeakData()
		require.NoError(t, err)
		require.Equal(t, text, data.Text)
		return data
	}

	tr, _ := protocol.NewTranscriptionMessage("Awaken!", true)
	send(tr)

	expectSpeak(SayAwakening)

	req := read()
	require.Equal(t, protocol.TypePhotoRequest, req.Type)
	reqData, err := req.GetPhotoRequestData()
	require.NoError(t, err)

	photo, _ := protocol.NewPhotoResponseMessage(reqData.RequestID, "image/jpeg", []byte{0xff, 0xd8})
	send(photo)

	expectSpeak(SayReady)

	agent := app.Agent("user-42")
	require.NotNil(t, agent)
	assert.Equal(t, 2, agent.Registry().Len())

	objResp, err := app.Handler().Test(func() *http.Request {
		r := httptest.NewRequest("GET", "/api/sessions/user-42/objects", nil)
		r.Header.Set("Authorization", "Bearer platform-key")
		return r
	}())
	require.NoError(t, err)
	assert.Equal(t, 200, objResp.StatusCode)
	var objects struct {
		Objects Snapshot `json:"objects"`
	}
	require.NoError(t, json.NewDecoder(objResp.Body).Decode(&objects))
	assert.Equal(t, uint64(1), objects.Objects.Generation)
	require.Len(t, objects.Objects.Entries, 2)
	assert.Equal(t, "mug", objects.Objects.Entries[0].Label)
	assert.Equal(t, "voice-b", objects.Objects.Entries[1].VoiceID)

	hey, _ := protocol.NewTranscriptionMessage("Hey lamp, are you hot?", true)
	send(hey)
	assert.Equal(t, "voice-b", expectSpeak("Ouch, watch it!").VoiceID)

	ws.Close()
	require.Eventually(t, func() bool { return app.Agent("user-42") == nil }, 2*time.Second, 10*time.Millisecond)
}
