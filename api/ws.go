package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skillupx/skillupx/runner"
)

const (
	wsReadTimeout  = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsMessage is one frame sent to the client. Type is "case", "report",
// "result" or "error".
type wsMessage struct {
	Type    string             `json:"type"`
	RunID   string             `json:"runId"`
	Case    *runner.CaseResult `json:"case,omitempty"`
	Run     *runResponse       `json:"run,omitempty"`
	Message string             `json:"message,omitempty"`
}

// handleRunWS reads one run request, streams a "case" frame per finished
// test case and ends with the full "report" (or "result" for a stdin run).
func (s *Server) handleRunWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	id := RequestID(r.Context())
	var mu sync.Mutex
	send := func(msg wsMessage) {
		mu.Lock()
		defer mu.Unlock()
		msg.RunID = id
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Warn("websocket write failed", "request_id", id, "err", err)
		}
	}

	conn.SetReadLimit(int64(s.maxSourceBytes) + 1<<20)
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var req runRequest
	if err := conn.ReadJSON(&req); err != nil {
		send(wsMessage{Type: "error", Message: "invalid run request: " + err.Error()})
		return
	}
	conn.SetReadDeadline(time.Time{})

	resp, err := s.execute(r.Context(), req, func(c runner.CaseResult) {
		send(wsMessage{Type: "case", Case: &c})
	})
	if err != nil {
		s.metrics.Errors.Add(1)
		s.logger.Warn("websocket run failed", "request_id", id, "err", err)
		send(wsMessage{Type: "error", Message: err.Error()})
		return
	}

	kind := "report"
	if resp.Report == nil {
		kind = "result"
	}
	send(wsMessage{Type: kind, Run: &resp})

	mu.Lock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	mu.Unlock()
}
