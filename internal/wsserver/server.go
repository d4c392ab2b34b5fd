// Package wsserver implements the WebSocket Server and Session
// actors: session bookkeeping, subscription routing, and JSON
// broadcast/multicast/unicast delivery.
package wsserver

import (
	"encoding/json"
	"log"
	"math/rand"

	"github.com/clusterwatch/clusterwatch/internal/hub"
	"github.com/clusterwatch/clusterwatch/internal/metrics"
)

const inboxCapacity = 1024

// HubHandle is the Hub as seen by the WS Server: a cheap, clonable
// handle used to forward ClientJoined notifications.
type HubHandle interface {
	NotifyClientJoined(sessionID uint64, wsServer hub.ServerHandle, subscribeTo metrics.View)
}

// SessionHandle is one connected WS Session as seen by the Server: a
// non-blocking text-frame sink.
type SessionHandle interface {
	Send(text string)
}

type sessionEntry struct {
	handle       SessionHandle
	subscription metrics.View
}

// message is the Server's own inbox tagged union.
type message interface{ isServerMessage() }

type connectMsg struct {
	handle SessionHandle
	reply  chan uint64
}
type disconnectMsg struct{ id uint64 }
type outboundMsg struct{ m hub.OutboundMessage }
type inboundMsg struct {
	sessionID   uint64
	subscribeTo metrics.View
}

func (connectMsg) isServerMessage() {}
func (disconnectMsg) isServerMessage() {}
func (outboundMsg) isServerMessage() {}
func (inboundMsg) isServerMessage() {}

// Server is the WS Server actor: it owns every session's address and
// current subscription.
type Server struct {
	hub   HubHandle
	inbox chan message

	sessions map[uint64]sessionEntry
}

// New returns a Server wired to hubHandle; call Run to start its
// message loop.
func New(hubHandle HubHandle) *Server {
	return &Server{
		hub:      hubHandle,
		inbox:    make(chan message, inboxCapacity),
		sessions: make(map[uint64]sessionEntry),
	}
}

// Run drives the Server's message loop until stop is closed.
func (s *Server) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case m := <-s.inbox:
			s.handle(m)
		}
	}
}

// Connect registers a new session with the default subscription
// (OverviewOneSecond) and returns its generated id.
func (s *Server) Connect(handle SessionHandle) uint64 {
	reply := make(chan uint64, 1)
	s.inbox <- connectMsg{handle: handle, reply: reply}
	return <-reply
}

// Disconnect removes a session.
func (s *Server) Disconnect(id uint64) {
	s.offer(disconnectMsg{id: id})
}

// Inbound forwards a parsed subscribe command from a session.
func (s *Server) Inbound(sessionID uint64, subscribeTo metrics.View) {
	s.offer(inboundMsg{sessionID: sessionID, subscribeTo: subscribeTo})
}

// Send implements hub.ServerHandle: the Hub's do_send of a routed,
// serialized outbound message.
func (s *Server) Send(m hub.OutboundMessage) {
	s.offer(outboundMsg{m: m})
}

func (s *Server) offer(m message) {
	select {
	case s.inbox <- m:
	default:
		log.Printf("ws server: inbox full, dropping %T", m)
	}
}

func (s *Server) handle(m message) {
	switch msg := m.(type) {
	case connectMsg:
		id := rand.Uint64()
		s.sessions[id] = sessionEntry{handle: msg.handle, subscription: metrics.ViewOneSecond}
		msg.reply <- id
	case disconnectMsg:
		if _, ok := s.sessions[msg.id]; !ok {
			log.Printf("ws server: disconnect for unknown session %d", msg.id)
			return
		}
		delete(s.sessions, msg.id)
	case outboundMsg:
		s.route(msg.m)
	case inboundMsg:
		entry, ok := s.sessions[msg.sessionID]
		if !ok {
			return
		}
		entry.subscription = msg.subscribeTo
		s.sessions[msg.sessionID] = entry
		s.hub.NotifyClientJoined(msg.sessionID, s, msg.subscribeTo)
	}
}

func (s *Server) route(m hub.OutboundMessage) {
	data, err := json.Marshal(m.Payload)
	if err != nil {
		log.Printf("ws server: failed to serialize %s: %v", m.Payload.Type, err)
		return
	}
	text := string(data)

	switch m.Receiver.Kind {
	case hub.Everyone:
		for _, entry := range s.sessions {
			entry.handle.Send(text)
		}
	case hub.BySubscription:
		for _, entry := range s.sessions {
			if entry.subscription == m.Receiver.View {
				entry.handle.Send(text)
			}
		}
	case hub.ByID:
		if entry, ok := s.sessions[m.Receiver.SessionID]; ok {
			entry.handle.Send(text)
		}
		// Unknown ids are silently dropped.
	}
}
