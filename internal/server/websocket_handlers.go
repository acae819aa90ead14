package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketRequest is a client message. Type is one of "identify", "tag" or
// "annotate"; for "annotate" Text carries the TEI document.
type WebSocketRequest struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	RequestID string `json:"request_id,omitempty"`
}

// WebSocketResponse answers one WebSocketRequest.
type WebSocketResponse struct {
	Type      string `json:"type"`
	Status    string `json:"status"` // "completed" or "error"
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn   *websocket.Conn
	client string
	mu     sync.Mutex
}

func (c *wsConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}

// webSocketHandler upgrades the connection and serves requests until the
// client goes away.
func (s *Server) webSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", clientIP(r))
	s.handleWebSocketConnection(&wsConn{conn: conn, client: clientIP(r)})
}

func (s *Server) handleWebSocketConnection(c *wsConn) {
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType != websocket.TextMessage {
			continue
		}
		// every message is charged like an HTTP request of the same size
		if err := s.limiter.Allow(c.client, int64(len(data))); err != nil {
			rateLimitHits.WithLabelValues("ws", limitKind(err)).Inc()
			s.send(c, wsError("", "", "rate_limited", err.Error()))
			continue
		}
		s.send(c, s.handleWebSocketMessage(data))
	}
}

// handleWebSocketMessage runs one request and builds its response.
func (s *Server) handleWebSocketMessage(data []byte) WebSocketResponse {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsError("", "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
	}
	if req.RequestID == "" {
		req.RequestID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	respType := req.Type + "_response"
	if s.pipeline == nil {
		return wsError(respType, req.RequestID, "unavailable", "Pipeline not initialized")
	}

	kind := "websocket_" + req.Type
	start := time.Now()
	var result any

	switch req.Type {
	case "identify":
		resp, err := s.identify(req.Text)
		if err != nil {
			requestsTotal.WithLabelValues(kind, "error").Inc()
			return wsError(respType, req.RequestID, "processing_error", fmt.Sprintf("Identification failed: %v", err))
		}
		result = resp
	case "tag":
		result = s.tag(req.Text)
	case "annotate":
		if req.Text == "" {
			return wsError(respType, req.RequestID, "invalid_request", "No document provided")
		}
		if int64(len(req.Text)) > s.maxBodyMB*1024*1024 {
			return wsError(respType, req.RequestID, "invalid_request", "Document too large")
		}
		documentSizeBytes.Observe(float64(len(req.Text)))
		out, stats, err := s.pipeline.AnnotateDocument([]byte(req.Text))
		if err != nil {
			requestsTotal.WithLabelValues(kind, "error").Inc()
			return wsError(respType, req.RequestID, "processing_error", fmt.Sprintf("Annotation failed: %v", err))
		}
		for lang, n := range stats.Languages {
			identifiedTotal.WithLabelValues(lang).Add(float64(n))
		}
		result = AnnotateResult{Document: string(out), Stats: stats}
	default:
		return wsError("", req.RequestID, "invalid_request", "Unsupported request type: "+req.Type)
	}

	requestsTotal.WithLabelValues(kind, "success").Inc()
	processingDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	return WebSocketResponse{
		Type:      respType,
		Status:    "completed",
		Result:    result,
		RequestID: req.RequestID,
	}
}

func wsError(respType, requestID, errorType, message string) WebSocketResponse {
	if respType == "" {
		respType = "error"
	}
	return WebSocketResponse{
		Type:      respType,
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	}
}

func (s *Server) send(c *wsConn, resp WebSocketResponse) {
	if err := c.writeJSON(resp); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
