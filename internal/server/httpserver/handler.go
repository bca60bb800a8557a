package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/yndnr/chgrid-go/internal/channel"
	"github.com/yndnr/chgrid-go/internal/telemetry/logger"
	"github.com/yndnr/chgrid-go/pkg/grid"
)

type handler struct {
	table       *grid.Table[channel.State]
	layout      channel.Layout
	diagnostics *logger.GridObserver
	timeout     time.Duration
	logger      logger.Logger
}

type channelResponse struct {
	Row    int           `json:"row"`
	Column int           `json:"column"`
	Class  channel.Class `json:"class"`
	State  channel.State `json:"state"`
	Open   bool          `json:"open"`
}

type locksResponse struct {
	Keys int   `json:"keys"`
	Held []int `json:"held"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := channel.Summarize(r.Context(), h.table, h.layout, h.timeout)
	if err != nil {
		h.writeGridError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) channel(w http.ResponseWriter, r *http.Request) {
	row, err1 := strconv.Atoi(r.PathValue("row"))
	column, err2 := strconv.Atoi(r.PathValue("column"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "HTTP-PARAM", "row and column must be integers")
		return
	}

	ctx := grid.WithTask(r.Context(), "http "+GetRequestIDFromContext(r.Context()))
	s, err := h.table.Get(ctx, row, column, h.timeout)
	if err != nil {
		h.writeGridError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, channelResponse{
		Row:    row,
		Column: column,
		Class:  h.layout.ClassOf(row, h.table.Grid().Keys()),
		State:  s,
		Open:   s.Open(),
	})
}

func (h *handler) locks(w http.ResponseWriter, _ *http.Request) {
	g := h.table.Grid()
	held := g.HeldKeys()
	if held == nil {
		held = []int{}
	}
	writeJSON(w, http.StatusOK, locksResponse{Keys: int(g.Keys()), Held: held})
}

func (h *handler) getDiagnostics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.diagnostics.Diagnostics())
}

func (h *handler) putDiagnostics(w http.ResponseWriter, r *http.Request) {
	var d logger.Diagnostics
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "HTTP-BODY", "invalid diagnostics: "+err.Error())
		return
	}
	h.diagnostics.SetDiagnostics(d)
	h.logger.Info("diagnostics updated",
		"request_id", GetRequestIDFromContext(r.Context()),
		"wait", d.Wait,
		"timeout", d.Timeout,
		"take", d.Take,
		"release", d.Release)
	writeJSON(w, http.StatusOK, d)
}

// writeGridError maps grid errors onto HTTP statuses.
func (h *handler) writeGridError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, grid.ErrOutOfBounds):
		status = http.StatusNotFound
	case errors.Is(err, grid.ErrTimeout):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("grid access failed", "path", r.URL.Path, "error", err)
	}
	code := grid.Code(err)
	if code == "" {
		code = "HTTP-INTERNAL"
	}
	writeError(w, status, code, err.Error())
}
