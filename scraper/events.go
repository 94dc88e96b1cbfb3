package scraper

import (
	"sync"
	"time"
)

// Status identifies a stage of a scrape run.
type Status string

const (
	StatusInitializing     Status = "initializing"
	StatusLogin            Status = "login"
	StatusLoginSuccess     Status = "login_success"
	StatusScrapingCourses  Status = "scraping_courses"
	StatusCoursesFound     Status = "courses_found"
	StatusProcessingCourse Status = "processing_course"
	StatusScrapingGroups   Status = "scraping_groups"
	StatusGroupProcessed   Status = "group_processed"
	StatusGroupWarning     Status = "group_warning"
	StatusCourseCompleted  Status = "course_completed"
	StatusCourseError      Status = "course_error"
	StatusSaving           Status = "saving"
	StatusCompleted        Status = "completed"
	StatusError            Status = "error"
	StatusCleanup          Status = "cleanup"
)

// IsTerminal reports whether the status ends the run from a client's point of
// view. Cleanup may still follow a terminal event.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ProgressEvent is one progress update emitted during a scrape run.
type ProgressEvent struct {
	SessionID string         `json:"session_id"`
	Status    Status         `json:"status"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

const listenerBuffer = 64

// Bus fans progress events out to per-session listeners and global sinks.
// A nil Bus is valid; all methods become no-ops so library callers can run
// without progress reporting.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]chan ProgressEvent
	sinks     []func(ProgressEvent)
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[string][]chan ProgressEvent),
	}
}

// RegisterSink adds a callback invoked for every event on any session. Sinks
// mirror events to Redis, NATS and similar backends.
func (b *Bus) RegisterSink(sink func(ProgressEvent)) {
	if b == nil || sink == nil {
		return
	}
	b.mu.Lock()
	b.sinks = append(b.sinks, sink)
	b.mu.Unlock()
}

// Emit publishes an event to the session's listeners and all sinks. Slow
// listeners drop events rather than block the scrape run.
func (b *Bus) Emit(event ProgressEvent) {
	if b == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Sends happen under the read lock. Channels are only closed under the
	// write lock, so an unsubscribe cannot close a channel mid-send.
	b.mu.RLock()
	for _, ch := range b.listeners[event.SessionID] {
		select {
		case ch <- event:
		default:
		}
	}
	sinks := b.sinks
	b.mu.RUnlock()

	for _, sink := range sinks {
		sink(event)
	}
}

// Subscribe registers a listener for one session. The returned function
// removes the listener and closes its channel.
func (b *Bus) Subscribe(sessionID string) (<-chan ProgressEvent, func()) {
	if b == nil {
		ch := make(chan ProgressEvent)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan ProgressEvent, listenerBuffer)

	b.mu.Lock()
	b.listeners[sessionID] = append(b.listeners[sessionID], ch)
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			channels := b.listeners[sessionID]
			for i, c := range channels {
				if c == ch {
					b.listeners[sessionID] = append(channels[:i], channels[i+1:]...)
					close(ch)
					break
				}
			}
			if len(b.listeners[sessionID]) == 0 {
				delete(b.listeners, sessionID)
			}
		})
	}

	return ch, unsubscribe
}

// CloseSession removes and closes every listener of a session. Called after
// the terminal event so stream handlers observe the channel closing.
func (b *Bus) CloseSession(sessionID string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.listeners[sessionID] {
		close(ch)
	}
	delete(b.listeners, sessionID)
}
