// Package statusd broadcasts job status snapshots to connected
// websocket clients and relays control requests (feed-hold/resume/
// cancel/reset/status) back to the owner as plain values on a channel.
// It never calls into a *controller.Controller itself — every
// CommandRequest it emits must be drained and applied from the single
// goroutine that also calls Controller.Pump (the cmd/cncstream tick
// loop), so Controller keeps exactly one mutator goroutine (spec §5)
// even though commands arrive from arbitrary reader goroutines, one per
// websocket connection. Grounded on the teacher's
// progress.ProgressReporter throttling pattern, transported over
// gorilla/websocket the way niceyeti-tabular wires its socket server.
package statusd

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chrisns/cnc-motion-core/internal/controller"
	"github.com/chrisns/cnc-motion-core/internal/jobid"
)

// Status is one broadcast snapshot.
type Status struct {
	JobID        string  `json:"job_id"`
	State        string  `json:"state"`
	LinesDone    int     `json:"lines_done"`
	DistanceDone float64 `json:"distance_mm"`
}

// NewStatus builds a Status from live controller fields.
func NewStatus(id jobid.ID, state controller.State, lines int, distanceMM float64) Status {
	return Status{JobID: id.String(), State: state.String(), LinesDone: lines, DistanceDone: distanceMM}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Command is a one-shot control request sent by a CLI client over the
// same websocket used for status broadcast (spec §6's external command
// interface, reusing the broadcast socket for request/response rather
// than opening a second port).
type Command struct {
	Action string `json:"action"`
}

// CommandResult is the answer to a CommandRequest: the status after the
// command was applied, or the error from applying it.
type CommandResult struct {
	Status Status
	Err    error
}

// CommandRequest pairs an incoming Command with a reply channel that
// the drainer (not readPump) must send exactly one CommandResult to.
type CommandRequest struct {
	Command Command
	Reply   chan<- CommandResult
}

// Broadcaster fans a Status out to every connected websocket client and
// forwards control requests from clients onto a channel for the owner
// to drain and apply on its own schedule.
type Broadcaster struct {
	log      *zap.Logger
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	commands chan CommandRequest
}

// New builds an empty Broadcaster. The channel of pending
// CommandRequests is buffered to 16 entries, plenty since control
// commands are rare and one-shot.
func New(log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		log:      log,
		clients:  map[*websocket.Conn]struct{}{},
		commands: make(chan CommandRequest, 16),
	}
}

// Commands returns the channel of incoming control requests. The owner
// must receive from it (typically with a non-blocking select) and reply
// on each request's Reply channel, from the same goroutine that drives
// Controller.Pump — never from inside this package.
func (b *Broadcaster) Commands() <-chan CommandRequest {
	return b.commands
}

// Handler upgrades an HTTP request to a websocket connection and
// registers it to receive future Publish calls. Wire it to an
// http.ServeMux path (e.g. "/status").
func (b *Broadcaster) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	go b.readPump(conn)
}

// readPump parses each incoming frame as a Command, hands it to the
// commands channel for the owner to apply, blocks for that one reply,
// and writes the result back. It never touches a Controller directly.
func (b *Broadcaster) readPump(conn *websocket.Conn) {
	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		conn.Close()
	}()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			b.log.Warn("discarding malformed command", zap.Error(err))
			continue
		}

		reply := make(chan CommandResult, 1)
		b.commands <- CommandRequest{Command: cmd, Reply: reply}
		result := <-reply

		resp := struct {
			Status
			Error string `json:"error,omitempty"`
		}{Status: result.Status}
		if result.Err != nil {
			resp.Error = result.Err.Error()
		}
		out, err := json.Marshal(resp)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			return
		}
	}
}

// Publish sends s as JSON to every currently connected client,
// dropping (and closing) any connection that fails to accept it.
func (b *Broadcaster) Publish(s Status) {
	payload, err := json.Marshal(s)
	if err != nil {
		b.log.Error("status marshal failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(b.clients, conn)
		}
	}
}
