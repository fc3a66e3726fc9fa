package gateway

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"
)

var (
	ErrNotReady        = errors.New("gateway: session is not ready")
	ErrSessionClosed   = errors.New("gateway: session is closed")
	ErrRateLimited     = errors.New("gateway: rate limited")
	ErrChannelNotFound = errors.New("gateway: channel not found")
)

// CloseStaleVoiceSession — код закрытия голосового websocket'а
// "Session no longer valid": сервер ещё помнит старую голосовую сессию.
const CloseStaleVoiceSession = 4006

// AlreadyConnectedError возвращается JoinVoice, если мы уже сидим в этом канале.
type AlreadyConnectedError struct {
	Conn VoiceConn
}

func (e *AlreadyConnectedError) Error() string {
	return fmt.Sprintf("gateway: already connected to voice channel %s", e.Conn.ChannelID())
}

// IsRateLimited — локальный лимитер, 429 от REST или RateLimitError discordgo.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var re *discordgo.RESTError
	return errors.As(err, &re) && re.Response != nil && re.Response.StatusCode == http.StatusTooManyRequests
}

// IsNotReady — у сессии сейчас нет живого websocket'а.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady) || errors.Is(err, discordgo.ErrWSNotFound)
}

// CloseCode достаёт код закрытия websocket'а из цепочки ошибок.
func CloseCode(err error) (int, bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return 0, false
}

// IsConnClosed — соединение закрыто (нами или удалённой стороной).
func IsConnClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSessionClosed) || errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	_, ok := CloseCode(err)
	return ok
}

// IsStaleVoiceSession — голосовой сервер отверг протухшую сессию (4006).
func IsStaleVoiceSession(err error) bool {
	code, ok := CloseCode(err)
	return ok && code == CloseStaleVoiceSession
}
