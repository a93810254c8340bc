// apps/go-server/internal/httpserver/ws.go
//
// Live display stream for one quiz session.
//
//   GET /quiz/{id}/ws
//
// Server → client: the current display state on connect, then one JSON
// quiz.View per change (guess, skip, tick, auto-advance, replay, exit), or
// {"error": code} when a client command is rejected.
//
// Client → server (optional): {"action":"guess","letter":"e"},
// {"action":"skip"}, {"action":"replay"}. Exit goes through the HTTP route
// so the session is also removed from the registry.
//
// All writes happen on the handler goroutine; the reader goroutine only
// forwards command errors to it.

package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/stemquiz/apps/go-server/internal/controller"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type wsCommand struct {
	Action string `json:"action"`
	Letter string `json:"letter,omitempty"`
}

type wsError struct {
	Error string `json:"error"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || s.cfg.ClientOrigin == "" {
				return true
			}
			if origin == s.cfg.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r)
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("ws upgrade")
		return
	}
	defer conn.Close()
	logger := hlog.FromRequest(r).With().Str("session", c.ID()).Logger()

	views, cancel := c.Subscribe()
	defer cancel()

	errs := make(chan string, 4)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		readCommands(conn, c, errs)
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(c.View()); err != nil {
		return
	}
	for {
		select {
		case <-readDone:
			return
		case v, ok := <-views:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := conn.WriteJSON(v); err != nil {
				logger.Debug().Err(err).Msg("ws write")
				return
			}
		case code := <-errs:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wsError{Error: code}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readCommands applies client commands until the connection fails.
// State changes reach the client through the subscription, not from here.
func readCommands(conn *websocket.Conn, c *controller.Controller, errs chan<- string) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			report(errs, "bad_json")
			continue
		}

		switch cmd.Action {
		case "guess":
			_, _, err = c.Guess(cmd.Letter)
		case "skip":
			_, err = c.Skip()
		case "replay":
			_, err = c.Replay()
		default:
			report(errs, "unknown_action")
			continue
		}
		if err != nil {
			report(errs, err.Error())
		}
	}
}

// report hands an error code to the writer without blocking the reader.
func report(errs chan<- string, code string) {
	select {
	case errs <- code:
	default:
	}
}
