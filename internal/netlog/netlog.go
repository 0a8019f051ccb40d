// Package netlog keeps a bounded in-memory log of outgoing API requests for
// the debug server and the CLI --network-log flag.
package netlog

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/utafrali/salesonboard/pkg/httpclient"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 200

const redacted = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
	"X-Api-Key":     true,
}

// Entry is one recorded request.
type Entry struct {
	ID             uint64            `json:"id"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Status         int               `json:"status,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	Duration       time.Duration     `json:"duration_ns"`
	CorrelationID  string            `json:"correlation_id,omitempty"`
	RequestHeaders map[string]string `json:"request_headers,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// Log is a fixed-size ring of entries. The oldest entry is overwritten once
// the ring is full. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	seq     uint64
	now     func() time.Time
}

// New creates a log holding up to capacity entries.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{entries: make([]Entry, capacity), now: time.Now}
}

// Capacity returns the ring size.
func (l *Log) Capacity() int { return len(l.entries) }

// Add records e and assigns it the next sequence number.
func (l *Log) Add(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e.ID = l.seq
	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
	return e
}

// Entries returns a copy of the recorded entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]Entry(nil), l.entries[:l.next]...)
	}
	out := make([]Entry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	return append(out, l.entries[:l.next]...)
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

// Clear drops every entry. Sequence numbers keep increasing.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.entries)
	l.next = 0
	l.full = false
}

// Middleware returns a transport wrapper for httpclient.WithTransportMiddleware.
func (l *Log) Middleware() func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return &transport{log: l, next: next}
	}
}

// Print writes the entries as an aligned table.
func (l *Log) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMETHOD\tSTATUS\tDURATION\tURL\tERROR")
	for _, e := range l.Entries() {
		status := "-"
		if e.Status > 0 {
			status = fmt.Sprint(e.Status)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Method, status, e.Duration.Round(time.Millisecond), e.URL, e.Error)
	}
	return tw.Flush()
}

type transport struct {
	log  *Log
	next http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := t.log.now()
	entry := Entry{
		Method:         req.Method,
		URL:            req.URL.String(),
		StartedAt:      start,
		CorrelationID:  req.Header.Get(httpclient.CorrelationHeader),
		RequestHeaders: redactHeaders(req.Header),
	}

	resp, err := t.next.RoundTrip(req)
	entry.Duration = t.log.now().Sub(start)
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.Status = resp.StatusCode
	}
	t.log.Add(entry)
	return resp, err
}

func redactHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if sensitiveHeaders[http.CanonicalHeaderKey(k)] {
			out[k] = redacted
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}
