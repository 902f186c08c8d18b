package realtime

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"syllabus-crawler/domain/model"
)

// Hub maintains per-job subscribers listening for scrape events.
type Hub struct {
	mu   sync.RWMutex
	jobs map[string]map[chan model.ScrapeEvent]chan struct{}
}

func NewScrapeHub() *Hub {
	return &Hub{jobs: make(map[string]map[chan model.ScrapeEvent]chan struct{})}
}

// Serve streams the job's events as SSE until a terminal event is written or
// the client goes away. backlog runs after subscribing and returns events that
// happened before the stream opened; a video may be delivered twice.
func (h *Hub) Serve(c *gin.Context, jobID string, backlog func() []model.ScrapeEvent) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering
	c.Status(http.StatusOK)

	ch := make(chan model.ScrapeEvent, 16)
	h.addSubscriber(jobID, ch)
	defer h.removeSubscriber(jobID, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	if backlog != nil {
		for _, evt := range backlog() {
			if write(c, evt) {
				return
			}
		}
	}

	for {
		select {
		case evt := <-ch:
			if write(c, evt) {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

// write sends one event and reports whether it ended the stream
func write(c *gin.Context, evt model.ScrapeEvent) bool {
	c.SSEvent(evt.Type, evt)
	c.Writer.Flush()
	return evt.Type == model.ScrapeEventDone || evt.Type == model.ScrapeEventFailed
}

// Subscribers counts open streams for a job
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.jobs[jobID])
}

func (h *Hub) addSubscriber(jobID string, ch chan model.ScrapeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.jobs[jobID] == nil {
		h.jobs[jobID] = make(map[chan model.ScrapeEvent]chan struct{})
	}
	h.jobs[jobID][ch] = make(chan struct{})
}

func (h *Hub) removeSubscriber(jobID string, ch chan model.ScrapeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.jobs[jobID]; subs != nil {
		if gone, ok := subs[ch]; ok {
			close(gone)
		}
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.jobs, jobID)
		}
	}
}

// Broadcast delivers evt to every subscriber of its job. Slow subscribers
// miss video events rather than block the scrape, but done and failed wait
// until the stream reads them or closes.
func (h *Hub) Broadcast(evt model.ScrapeEvent) {
	h.mu.RLock()
	subs := make(map[chan model.ScrapeEvent]chan struct{}, len(h.jobs[evt.JobID]))
	for ch, gone := range h.jobs[evt.JobID] {
		subs[ch] = gone
	}
	h.mu.RUnlock()

	terminal := evt.Type == model.ScrapeEventDone || evt.Type == model.ScrapeEventFailed
	for ch, gone := range subs {
		if terminal {
			select {
			case ch <- evt:
			case <-gone:
			}
			continue
		}
		select {
		case ch <- evt:
		default:
		}
	}
}
