// Package protocol defines the WebSocket message types exchanged between
// the wearable platform and lumiere, one connection per user session.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Wearable → App messages
	TypeTranscription MessageType = "transcription"  // Speech recognition result
	TypeButtonPress   MessageType = "button_press"   // Hardware button event
	TypePhotoResponse MessageType = "photo_response" // Answer to a photo request

	// App → Wearable messages
	TypeSpeak        MessageType = "speak"         // Text to speak
	TypePhotoRequest MessageType = "photo_request" // Ask the camera for a photo

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Wearable → App Message Types
// =============================================================================

// TranscriptionData is a speech recognition result. Interim results arrive
// with IsFinal false and are superseded by a final one.
type TranscriptionData struct {
	Text     string `json:"text"`
	IsFinal  bool   `json:"is_final"`
	Language string `json:"language,omitempty"`
}

// Button press variants.
const (
	PressShort = "short"
	PressLong  = "long"
)

// ButtonPressData is a hardware button event.
type ButtonPressData struct {
	ButtonID  string `json:"button_id"`
	PressType string `json:"press_type"` // "short", "long"
}

// PhotoResponseData answers a PhotoRequestData with the same RequestID.
// Error is set when the camera could not take the photo.
type PhotoResponseData struct {
	RequestID string `json:"request_id"`
	MimeType  string `json:"mime_type,omitempty"`
	Data      string `json:"data,omitempty"` // base64 encoded
	Error     string `json:"error,omitempty"`
}

// =============================================================================
// App → Wearable Message Types
// =============================================================================

// SpeakData asks the wearable to speak text. VoiceID selects a TTS voice;
// empty means the platform default.
type SpeakData struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
}

// PhotoRequestData asks the wearable camera for one photo.
type PhotoRequestData struct {
	RequestID string `json:"request_id"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
