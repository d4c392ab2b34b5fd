package wsserver

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clusterwatch/clusterwatch/internal/metrics"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingPeriod   = (pongTimeout * 9) / 10
)

// subscribeCommand is the one inbound message shape a client may send:
// {"subscribe_to": "OverviewFiveSeconds"}.
type subscribeCommand struct {
	Subscribe metrics.View `json:"subscribe_to"`
}

// Session is the WS Session actor: it owns one client connection and
// forwards outgoing frames from its own outbox so that conn.WriteMessage
// is only ever called from this goroutine.
type Session struct {
	id     uint64
	conn   *websocket.Conn
	server *Server
	outbox chan string
}

// Serve upgrades nothing itself (the caller already holds an upgraded
// *websocket.Conn); it registers the session with server, then blocks
// running the session's read and write pumps until the connection
// closes.
func Serve(conn *websocket.Conn, server *Server) {
	s := &Session{
		conn:   conn,
		server: server,
		outbox: make(chan string, 64),
	}
	s.id = server.Connect(s)
	defer server.Disconnect(s.id)

	done := make(chan struct{})
	go s.writePump(done)
	s.readPump()
	close(done)
}

// Send implements wsserver.SessionHandle: a non-blocking handoff of one
// outgoing text frame to this session's write pump.
func (s *Session) Send(text string) {
	select {
	case s.outbox <- text:
	default:
		log.Printf("ws session %d: outbox full, dropping frame", s.id)
	}
}

func (s *Session) readPump() {
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws session %d: read error: %v", s.id, err)
			}
			return
		}
		if msgType == websocket.BinaryMessage {
			log.Printf("ws session %d: unexpected binary frame, ignoring", s.id)
			continue
		}
		s.handleText(data)
	}
}

func (s *Session) handleText(data []byte) {
	var cmd subscribeCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		log.Printf("ws session %d: malformed message: %v", s.id, err)
		return
	}
	s.server.Inbound(s.id, cmd.Subscribe)
}

func (s *Session) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case text := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				log.Printf("ws session %d: write error: %v", s.id, err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
