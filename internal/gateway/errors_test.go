package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	rest429 := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
	rest500 := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusInternalServerError}}
	stale := &websocket.CloseError{Code: CloseStaleVoiceSession, Text: "session no longer valid"}
	abnormal := &websocket.CloseError{Code: websocket.CloseAbnormalClosure}

	tests := []struct {
		name        string
		err         error
		rateLimited bool
		notReady    bool
		closed      bool
		stale       bool
	}{
		{name: "nil", err: nil},
		{name: "local limiter", err: ErrRateLimited, rateLimited: true},
		{name: "rest 429", err: fmt.Errorf("update presence: %w", rest429), rateLimited: true},
		{name: "rest 500", err: rest500},
		{name: "not ready", err: ErrNotReady, notReady: true},
		{name: "no websocket", err: fmt.Errorf("update presence: %w", discordgo.ErrWSNotFound), notReady: true},
		{name: "session closed", err: ErrSessionClosed, closed: true},
		{name: "net closed", err: fmt.Errorf("write: %w", net.ErrClosed), closed: true},
		{name: "close sent", err: websocket.ErrCloseSent, closed: true},
		{name: "abnormal close", err: abnormal, closed: true},
		{name: "stale voice", err: fmt.Errorf("join voice channel 1: %w", stale), closed: true, stale: true},
		{name: "generic", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.rateLimited, IsRateLimited(tt.err), "IsRateLimited")
			assert.Equal(t, tt.notReady, IsNotReady(tt.err), "IsNotReady")
			assert.Equal(t, tt.closed, IsConnClosed(tt.err), "IsConnClosed")
			assert.Equal(t, tt.stale, IsStaleVoiceSession(tt.err), "IsStaleVoiceSession")
		})
	}
}

func TestCloseCode(t *testing.T) {
	code, ok := CloseCode(fmt.Errorf("wrapped: %w", &websocket.CloseError{Code: 4014}))
	assert.True(t, ok)
	assert.Equal(t, 4014, code)

	_, ok = CloseCode(errors.New("plain"))
	assert.False(t, ok)
}

type stubVoice struct{ channel string }

func (s stubVoice) ChannelID() string { return s.channel }
func (s stubVoice) IsConnected() bool { return true }
func (s stubVoice) Disconnect(_ context.Context) error {
	return nil
}

func TestAlreadyConnectedError(t *testing.T) {
	err := fmt.Errorf("join: %w", &AlreadyConnectedError{Conn: stubVoice{channel: "42"}})

	var ace *AlreadyConnectedError
	assert.True(t, errors.As(err, &ace))
	assert.Equal(t, "42", ace.Conn.ChannelID())
	assert.Contains(t, err.Error(), "42")
}
