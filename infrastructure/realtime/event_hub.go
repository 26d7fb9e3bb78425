package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"streamclips/domain/repository"

	"github.com/gin-gonic/gin"
)

// Event is an SSE payload broadcast to one room's subscribers.
type Event struct {
	Room    string      `json:"room"`
	Name    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Rooms clients can subscribe to.
const (
	RoomStreams = "streams"
	RoomClips   = "clips"
)

// Hub fans stream/clip lifecycle events out to subscribed SSE clients.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan Event]struct{})}
}

// Serve registers an SSE stream for the requested room (?room=streams|clips,
// default clips).
func (h *Hub) Serve(c *gin.Context) {
	room := c.DefaultQuery("room", RoomClips)
	if room != RoomStreams && room != RoomClips {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown room"})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := make(chan Event, 16)
	h.addSubscriber(room, ch)
	defer h.removeSubscriber(room, ch)

	// Initial comment keeps the connection open through proxies.
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case evt := <-ch:
			data, _ := json.Marshal(evt.Payload)
			_, _ = c.Writer.Write([]byte("event: " + evt.Name + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

// Broadcast sends an event to every subscriber of the room, dropping the
// event for slow consumers instead of blocking the caller.
func (h *Hub) Broadcast(room, event string, payload interface{}) {
	evt := Event{Room: room, Name: event, Payload: payload}
	h.mu.RLock()
	subs := h.rooms[room]
	for ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) addSubscriber(room string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[chan Event]struct{})
	}
	h.rooms[room][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(room string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.rooms[room]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.rooms, room)
		}
	}
}

var _ repository.IBroadcaster = (*Hub)(nil)
