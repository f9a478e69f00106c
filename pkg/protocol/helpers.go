package protocol

import (
	"encoding/base64"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewTranscriptionMessage creates a transcription message
func NewTranscriptionMessage(text string, isFinal bool) (*Message, error) {
	return NewMessage(TypeTranscription, TranscriptionData{
		Text:    text,
		IsFinal: isFinal,
	})
}

// NewButtonPressMessage creates a button press message
func NewButtonPressMessage(buttonID, pressType string) (*Message, error) {
	return NewMessage(TypeButtonPress, ButtonPressData{
		ButtonID:  buttonID,
		PressType: pressType,
	})
}

// NewPhotoResponseMessage creates a photo response carrying image bytes
func NewPhotoResponseMessage(requestID, mimeType string, image []byte) (*Message, error) {
	return NewMessage(TypePhotoResponse, PhotoResponseData{
		RequestID: requestID,
		MimeType:  mimeType,
		Data:      base64.StdEncoding.EncodeToString(image),
	})
}

// NewPhotoErrorMessage creates a photo response reporting a camera failure
func NewPhotoErrorMessage(requestID, reason string) (*Message, error) {
	return NewMessage(TypePhotoResponse, PhotoResponseData{
		RequestID: requestID,
		Error:     reason,
	})
}

// NewSpeakMessage creates a speak message
func NewSpeakMessage(text, voiceID string) (*Message, error) {
	return NewMessage(TypeSpeak, SpeakData{
		Text:    text,
		VoiceID: voiceID,
	})
}

// NewPhotoRequestMessage creates a photo request message
func NewPhotoRequestMessage(requestID string) (*Message, error) {
	return NewMessage(TypePhotoRequest, PhotoRequestData{
		RequestID: requestID,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetTranscriptionData extracts transcription data from a message
func (m *Message) GetTranscriptionData() (*TranscriptionData, error) {
	var data TranscriptionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetButtonPressData extracts button press data from a message
func (m *Message) GetButtonPressData() (*ButtonPressData, error) {
	var data ButtonPressData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPhotoResponseData extracts a photo response from a message
func (m *Message) GetPhotoResponseData() (*PhotoResponseData, error) {
	var data PhotoResponseData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeImage decodes the base64 image data
func (p *PhotoResponseData) DecodeImage() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.Data)
}

// GetSpeakData extracts speak data from a message
func (m *Message) GetSpeakData() (*SpeakData, error) {
	var data SpeakData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPhotoRequestData extracts a photo request from a message
func (m *Message) GetPhotoRequestData() (*PhotoRequestData, error) {
	var data PhotoRequestData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
