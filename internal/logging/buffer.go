package logging

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Entry is one buffered log record. Attribute keys are qualified by their
// group names, joined with dots.
type Entry struct {
	Time    time.Time         `json:"time"`
	Level   slog.Level        `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// ring is the storage shared by a BufferHandler and its derivatives.
type ring struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// BufferHandler is an slog.Handler keeping the most recent records in
// memory, oldest first.
type BufferHandler struct {
	ring   *ring
	level  slog.Leveler
	attrs  []prefixedAttr
	groups []string
}

// prefixedAttr is an attribute bound by WithAttrs, with the group path in
// effect at the time.
type prefixedAttr struct {
	slog.Attr
	prefix string
}

var _ slog.Handler = (*BufferHandler)(nil)

// NewBufferHandler creates a handler holding at most size entries at or
// above level. A non-positive size selects DefaultBufferSize.
func NewBufferHandler(size int, level slog.Leveler) *BufferHandler {
	if size <= 0 {
		size = DefaultBufferSize
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &BufferHandler{
		ring:  &ring{entries: make([]Entry, size)},
		level: level,
	}
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+record.NumAttrs())
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		flatten(attrs, a.prefix, a.Attr)
	}
	record.Attrs(func(a slog.Attr) bool {
		flatten(attrs, prefix, a)
		return true
	})

	entry := Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	}

	r := h.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = entry
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
	return nil
}

func flatten(dst map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			flatten(dst, key, ga)
		}
		return
	}
	dst[key] = a.Value.String()
}

// WithAttrs implements slog.Handler.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	prefix := strings.Join(h.groups, ".")
	out := h.clone()
	for _, a := range attrs {
		out.attrs = append(out.attrs, prefixedAttr{Attr: a, prefix: prefix})
	}
	return out
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	out := h.clone()
	out.groups = append(out.groups, name)
	return out
}

func (h *BufferHandler) clone() *BufferHandler {
	return &BufferHandler{
		ring:   h.ring,
		level:  h.level,
		attrs:  slices.Clip(h.attrs),
		groups: slices.Clip(h.groups),
	}
}

// Len returns the number of buffered entries.
func (h *BufferHandler) Len() int {
	r := h.ring
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Cap returns the maximum number of buffered entries.
func (h *BufferHandler) Cap() int { return len(h.ring.entries) }

// Entries returns a copy of every buffered entry, oldest first.
func (h *BufferHandler) Entries() []Entry {
	return h.Recent(0)
}

// Recent returns the most recent n entries, oldest first. A non-positive n
// or one larger than the buffer returns everything.
func (h *BufferHandler) Recent(n int) []Entry {
	r := h.ring
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []Entry
	if r.full {
		all = append(all, r.entries[r.next:]...)
		all = append(all, r.entries[:r.next]...)
	} else {
		all = append(all, r.entries[:r.next]...)
	}
	if n > 0 && n < len(all) {
		all = all[len(all)-n:]
	}
	return all
}

// Search returns the entries whose message, attribute keys or attribute
// values contain query, case-insensitively.
func (h *BufferHandler) Search(query string) []Entry {
	query = strings.ToLower(query)
	var matches []Entry
	for _, entry := range h.Entries() {
		if strings.Contains(strings.ToLower(entry.Message), query) {
			matches = append(matches, entry)
			continue
		}
		for key, value := range entry.Attrs {
			if strings.Contains(strings.ToLower(key), query) ||
				strings.Contains(strings.ToLower(value), query) {
				matches = append(matches, entry)
				break
			}
		}
	}
	return matches
}

// Clear removes every entry.
func (h *BufferHandler) Clear() {
	r := h.ring
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
	r.next = 0
	r.full = false
}
