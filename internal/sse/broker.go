// Package sse streams song library changes to browsers as Server-Sent Events.
package sse

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Event names written on the stream.
const (
	EventSongCreated    = "song.created"
	EventSongUpdated    = "song.updated"
	EventSongDeleted    = "song.deleted"
	EventLibraryUpdated = "library.updated"
)

// songEvents maps watcher change kinds to event names.
var songEvents = map[string]string{
	"created": EventSongCreated,
	"updated": EventSongUpdated,
	"deleted": EventSongDeleted,
}

const (
	subscriberBuffer = 64
	heartbeat        = 30 * time.Second
)

type change struct {
	kind string
	path string
}

type subscriber struct {
	out chan []byte
}

// Broker fans song changes out to connected clients.
//
// Every song change is forwarded at once. Changes are also summarised in a
// single library.updated event sent once the window after the first change
// has passed, so clients re-run their searches at most once per window.
//
// NewBroker starts a goroutine that owns the subscriber set, the pending
// summary and the event id counter; other goroutines reach that state only
// through requests and changes.
type Broker struct {
	window time.Duration

	requests chan func(*hub)
	changes  chan change

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// hub is the state owned by the broker goroutine.
type hub struct {
	window  time.Duration
	subs    map[*subscriber]struct{}
	nextID  uint64
	pending int
	flush   *time.Timer
	flushC  <-chan time.Time
}

// NewBroker creates a broker that summarises changes every window.
// A non-positive window defaults to two seconds.
func NewBroker(window time.Duration) *Broker {
	if window <= 0 {
		window = 2 * time.Second
	}
	b := &Broker{
		window:   window,
		requests: make(chan func(*hub)),
		changes:  make(chan change, 256),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.done)

	h := &hub{window: b.window, subs: make(map[*subscriber]struct{})}
	for {
		select {
		case <-b.quit:
			h.shutdown()
			return
		case fn := <-b.requests:
			fn(h)
		case c := <-b.changes:
			h.songChanged(c)
		case <-h.flushC:
			h.summarise()
		}
	}
}

func (h *hub) songChanged(c change) {
	name, ok := songEvents[c.kind]
	if !ok {
		return
	}
	h.broadcast(name, map[string]string{"path": c.path})

	h.pending++
	if h.flush == nil {
		h.flush = time.NewTimer(h.window)
		h.flushC = h.flush.C
	}
}

func (h *hub) summarise() {
	h.broadcast(EventLibraryUpdated, map[string]int{"changes": h.pending})
	h.pending = 0
	h.flush = nil
	h.flushC = nil
}

// broadcast writes one frame to every subscriber. A subscriber whose buffer
// is full is disconnected; EventSource reconnects on its own.
func (h *hub) broadcast(name string, data any) {
	h.nextID++
	msg, err := frame(h.nextID, name, data)
	if err != nil {
		return
	}
	for sub := range h.subs {
		select {
		case sub.out <- msg:
		default:
			h.drop(sub)
		}
	}
}

func (h *hub) drop(sub *subscriber) {
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.out)
	}
}

func (h *hub) shutdown() {
	if h.flush != nil {
		h.flush.Stop()
	}
	for sub := range h.subs {
		h.drop(sub)
	}
}

// frame renders one event in text/event-stream framing.
func frame(id uint64, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("id: ")
	buf.WriteString(strconv.FormatUint(id, 10))
	buf.WriteString("\nevent: ")
	buf.WriteString(name)
	buf.WriteString("\ndata: ")
	// Encode terminates the payload with '\n'.
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// do runs fn on the broker goroutine. It reports false once the broker is closed.
func (b *Broker) do(fn func(*hub)) bool {
	select {
	case b.requests <- fn:
		return true
	case <-b.done:
		return false
	}
}

func (b *Broker) subscribe() *subscriber {
	sub := &subscriber{out: make(chan []byte, subscriberBuffer)}
	if !b.do(func(h *hub) { h.subs[sub] = struct{}{} }) {
		close(sub.out)
	}
	return sub
}

func (b *Broker) unsubscribe(sub *subscriber) {
	b.do(func(h *hub) { h.drop(sub) })
}

// Clients returns the number of connected clients.
func (b *Broker) Clients() int {
	n := make(chan int, 1)
	if !b.do(func(h *hub) { n <- len(h.subs) }) {
		return 0
	}
	return <-n
}

// PublishSongEvent queues a song file change. kind is "created", "updated"
// or "deleted"; other kinds are ignored. path is the /song route path.
// It matches watcher.EventCallback.
func (b *Broker) PublishSongEvent(kind, path string) {
	select {
	case b.changes <- change{kind: kind, path: path}:
	case <-b.done:
	}
}

// Close disconnects every client and stops the broker. Safe to call twice.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.quit) })
	<-b.done
}

// ServeHTTP streams events to one client (GET /events) until it goes away
// or the broker closes.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := rc.Flush(); err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := b.subscribe()
	defer b.unsubscribe(sub)

	ping := time.NewTicker(heartbeat)
	defer ping.Stop()

	for {
		var msg []byte
		select {
		case <-r.Context().Done():
			return
		case m, ok := <-sub.out:
			if !ok {
				return
			}
			msg = m
		case <-ping.C:
			msg = []byte(": ping\n\n")
		}
		if _, err := w.Write(msg); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
