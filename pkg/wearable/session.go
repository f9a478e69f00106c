package wearable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/teslashibe/go-lumiere/pkg/protocol"
	"github.com/teslashibe/go-lumiere/pkg/vision"
)

// Sentinel errors
var (
	ErrSessionClosed = errors.New("wearable: session closed")
	ErrPhotoTimeout  = errors.New("wearable: photo request timed out")
	ErrEmptyPhoto    = errors.New("wearable: photo response carried no image")
)

// PhotoError reports a camera failure announced by the wearable.
type PhotoError struct {
	RequestID string
	Reason    string
}

func (e *PhotoError) Error() string {
	return fmt.Sprintf("wearable: photo %s failed: %s", e.RequestID, e.Reason)
}

// conn is the subset of a websocket connection a Session writes to.
type conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type photoResult struct {
	photo *vision.Photo
	err   error
}

// Session is one live connection from the wearable platform, bound to a
// single user session.
type Session struct {
	ID        string
	Connected time.Time

	conn         conn
	photoTimeout time.Duration
	logger       *slog.Logger
	onSend       func()

	writeMu sync.Mutex

	mu       sync.Mutex
	lastSeen time.Time
	pending  map[string]chan photoResult
	closed   bool
}

func newSession(id string, c conn, photoTimeout time.Duration, logger *slog.Logger) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Connected:    now,
		conn:         c,
		photoTimeout: photoTimeout,
		logger:       logger.With("session_id", id),
		lastSeen:     now,
		pending:      make(map[string]chan photoResult),
	}
}

// LastSeen returns the time of the most recent inbound message.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// send writes a message to the wearable. Writes are serialized.
func (s *Session) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("wearable: write %s: %w", msg.Type, err)
	}
	if s.onSend != nil {
		s.onSend()
	}
	return nil
}

// Speak asks the wearable to speak text with voiceID. An empty voiceID
// selects the platform default voice.
func (s *Session) Speak(ctx context.Context, text, voiceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := protocol.NewSpeakMessage(text, voiceID)
	if err != nil {
		return err
	}
	s.logger.Debug("speak", "text", text, "voice_id", voiceID)
	return s.send(msg)
}

// RequestPhoto asks the wearable camera for a photo and waits for the
// matching response, ctx cancellation, or the session photo timeout.
func (s *Session) RequestPhoto(ctx context.Context) (*vision.Photo, error) {
	id := uuid.NewString()
	ch := make(chan photoResult, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	msg, err := protocol.NewPhotoRequestMessage(id)
	if err != nil {
		return nil, err
	}
	if err := s.send(msg); err != nil {
		return nil, err
	}

	timer := time.NewTimer(s.photoTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.photo, res.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrPhotoTimeout, s.photoTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolvePhoto delivers a photo response to its waiter. Responses with no
// waiter are dropped.
func (s *Session) resolvePhoto(data *protocol.PhotoResponseData) bool {
	s.mu.Lock()
	ch, ok := s.pending[data.RequestID]
	if ok {
		delete(s.pending, data.RequestID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	ch <- decodePhoto(data)
	return true
}

func decodePhoto(data *protocol.PhotoResponseData) photoResult {
	if data.Error != "" {
		return photoResult{err: &PhotoError{RequestID: data.RequestID, Reason: data.Error}}
	}
	img, err := data.DecodeImage()
	if err != nil {
		return photoResult{err: fmt.Errorf("wearable: decode photo %s: %w", data.RequestID, err)}
	}
	if len(img) == 0 {
		return photoResult{err: ErrEmptyPhoto}
	}
	return photoResult{photo: &vision.Photo{Data: img, MimeType: data.MimeType}}
}

// close fails every pending photo request and rejects further sends.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pending := s.pending
	s.pending = make(map[string]chan photoResult)
	s.mu.Unlock()

	for _, ch := range pending {
		ch <- photoResult{err: ErrSessionClosed}
	}
}
