package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"my-publisher/domain/model"
)

// PublishStatusEvent represents an SSE payload for per-platform publish updates.
type PublishStatusEvent struct {
	Type        string `json:"type"`
	ContentID   string `json:"content_id"`
	Platform    string `json:"platform,omitempty"`
	Status      string `json:"status"`
	ExternalRef string `json:"external_ref,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Hub maintains per-user subscribers listening for publish status events.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan PublishStatusEvent]struct{}
}

func NewPublishHub() *Hub {
	return &Hub{users: make(map[string]map[chan PublishStatusEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan PublishStatusEvent, 8)
	h.addSubscriber(userID, ch)
	defer h.removeSubscriber(userID, ch)

	// Initial comment to keep connection open
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	notify := c.Writer.CloseNotify()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: publish_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) addSubscriber(userID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan PublishStatusEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(userID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// BroadcastResult pushes one platform outcome to every stream of the owning user.
func (h *Hub) BroadcastResult(userID, contentID string, res model.PublishResult) {
	status := "published"
	if !res.Success {
		status = "failed"
	}
	h.broadcast(userID, PublishStatusEvent{
		Type:        "publish_status",
		ContentID:   contentID,
		Platform:    string(res.Platform),
		Status:      status,
		ExternalRef: res.ExternalPostID,
		ErrorKind:   string(res.ErrorKind),
		Error:       res.ErrorMessage,
	})
}

// BroadcastReport pushes the aggregate outcome once all platforms settled.
func (h *Hub) BroadcastReport(report model.PublishReport) {
	h.broadcast(report.UserID, PublishStatusEvent{
		Type:      "publish_report",
		ContentID: report.ContentID,
		Status:    report.Outcome,
	})
}

func (h *Hub) broadcast(userID string, evt PublishStatusEvent) {
	h.mu.RLock()
	subs := h.users[userID]
	for ch := range subs {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}
