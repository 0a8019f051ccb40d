package http

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/utafrali/salesonboard/internal/netlog"
	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/httputil"
)

// NetworkHandler exposes the network request log.
type NetworkHandler struct {
	log    *netlog.Log
	logger *slog.Logger
}

// NewNetworkHandler creates a handler over log.
func NewNetworkHandler(log *netlog.Log, logger *slog.Logger) *NetworkHandler {
	return &NetworkHandler{log: log, logger: logger}
}

// NetworkLog is the body of GET /debug/network.
type NetworkLog struct {
	Entries  []netlog.Entry `json:"entries"`
	Count    int            `json:"count"`
	Capacity int            `json:"capacity"`
}

// List returns recorded requests, newest first. Optional query parameters:
// limit caps the number of entries, failed=true keeps only errors and
// non-2xx responses.
func (h *NetworkHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteError(w, r, apperrors.Validation("invalid limit", map[string]string{
				"limit": "must be a positive integer",
			}), h.logger)
			return
		}
		limit = n
	}
	failedOnly := q.Get("failed") == "true"

	entries := h.log.Entries()
	slices.Reverse(entries)
	if failedOnly {
		entries = slices.DeleteFunc(entries, func(e netlog.Entry) bool {
			return e.Error == "" && e.Status >= 200 && e.Status < 300
		})
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []netlog.Entry{}
	}

	httputil.WriteData(w, http.StatusOK, NetworkLog{
		Entries:  entries,
		Count:    len(entries),
		Capacity: h.log.Capacity(),
	})
}

// Clear drops every recorded request.
func (h *NetworkHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.log.Clear()
	w.WriteHeader(http.StatusNoContent)
}
