// Package handlers provides the HTTP handlers of the comparator: the HTML
// page, the JSON API and the health endpoint.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/smpc-comparator/comparison"
	"github.com/giygas/smpc-comparator/fieldnames"
	"github.com/giygas/smpc-comparator/filter"
	"github.com/giygas/smpc-comparator/interfaces"
	"github.com/giygas/smpc-comparator/logging"
	"github.com/giygas/smpc-comparator/record"
	"github.com/giygas/smpc-comparator/selection"
)

// maxSelectionParams bounds the sel values read from a query
const maxSelectionParams = 16

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore interfaces.DataStore
	validator interfaces.DataValidator
	names     *fieldnames.Registry
	health    interfaces.HealthChecker
}

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator,
	names *fieldnames.Registry, health interfaces.HealthChecker) *HTTPHandlerImpl {
	if names == nil {
		names = fieldnames.NewRegistry()
	}
	return &HTTPHandlerImpl{
		dataStore: dataStore,
		validator: validator,
		names:     names,
		health:    health,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// ETag identifies the representation of the current data set and label table
func (h *HTTPHandlerImpl) ETag() string {
	return fmt.Sprintf(`"%s-%d"`, h.dataStore.GetVersion(), h.names.Generation())
}

// checkNotModified sets ETag and Last-Modified and answers 304 when the
// client already holds this version.
func (h *HTTPHandlerImpl) checkNotModified(w http.ResponseWriter, r *http.Request, snap interfaces.Snapshot) bool {
	etag := h.ETag()
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if !snap.LastUpdated.IsZero() {
		w.Header().Set("Last-Modified", snap.LastUpdated.UTC().Format(http.TimeFormat))
	}

	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

// requireReady answers 503 while loading and 502 after a failed first load
func (h *HTTPHandlerImpl) requireReady(w http.ResponseWriter, snap interfaces.Snapshot) bool {
	switch snap.State {
	case interfaces.StateReady:
		return true
	case interfaces.StateError:
		msg := "data fetch failed"
		if snap.Err != nil {
			msg = snap.Err.Error()
		}
		h.RespondWithError(w, http.StatusBadGateway, msg)
	default:
		w.Header().Set("Retry-After", "5")
		h.RespondWithError(w, http.StatusServiceUnavailable, "data is still loading")
	}
	return false
}

// parseFilter reads and validates the name and auth query values
func (h *HTTPHandlerImpl) parseFilter(r *http.Request) (filter.State, error) {
	q := r.URL.Query()
	state := filter.State{Name: q.Get("name"), Auth: q.Get("auth")}
	if err := h.validator.ValidateFilter(state.Name); err != nil {
		logging.Warn("Unusual user input", "name", state.Name)
		return state, fmt.Errorf("invalid name filter: %w", err)
	}
	if err := h.validator.ValidateFilter(state.Auth); err != nil {
		logging.Warn("Unusual user input", "auth", state.Auth)
		return state, fmt.Errorf("invalid auth filter: %w", err)
	}
	return state, nil
}

// parseSelection replays the sel query values through the selection rules.
// Invalid and unknown keys are ignored.
func (h *HTTPHandlerImpl) parseSelection(r *http.Request) selection.Set {
	keys := r.URL.Query()["sel"]
	if len(keys) > maxSelectionParams {
		keys = keys[len(keys)-maxSelectionParams:]
	}
	keys = slices.DeleteFunc(slices.Clone(keys), func(k string) bool {
		return h.validator.ValidateKey(k) != nil
	})
	return selection.FromKeys(keys, h.dataStore.Lookup)
}

// recordKeyParam returns the {key} route parameter. chi matches on the
// escaped path when there is one, so ids like EU/1/96/001 arrive as
// EU%2F1%2F96%2F001.
func recordKeyParam(r *http.Request) string {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}

// flagSet reports whether a query flag is on. A bare flag counts as true.
func flagSet(q url.Values, name string) bool {
	if !q.Has(name) {
		return false
	}
	v := q.Get(name)
	if v == "" {
		return true
	}
	on, err := strconv.ParseBool(v)
	return err == nil && on
}

type recordSummary struct {
	Key                 string        `json:"key"`
	Name                string        `json:"name"`
	AuthorisationNumber string        `json:"authorisation_number"`
	PharmaceuticalForm  string        `json:"pharmaceutical_form"`
	Composition         string        `json:"composition"`
	Fields              record.Record `json:"fields"`
}

func summarize(r record.Record) recordSummary {
	return recordSummary{
		Key:                 r.Key,
		Name:                cellText(r.Name()),
		AuthorisationNumber: cellText(r.AuthorisationNumber()),
		PharmaceuticalForm:  cellText(r.PharmaceuticalForm()),
		Composition:         r.Composition(),
		Fields:              r,
	}
}

// cellText is the product list rendering: empty values fall back to N/A
func cellText(v record.Value) string {
	if v.Truthy() {
		return v.Text
	}
	return record.Placeholder
}

// ServeRecords returns the records matching the name and auth filters
func (h *HTTPHandlerImpl) ServeRecords(w http.ResponseWriter, r *http.Request) {
	snap := h.dataStore.Snapshot()
	if !h.requireReady(w, snap) {
		return
	}

	state, err := h.parseFilter(r)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.checkNotModified(w, r, snap) {
		return
	}

	matched := filter.Apply(snap.Records, state)
	items := make([]recordSummary, len(matched))
	for i, rec := range matched {
		items[i] = summarize(rec)
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"filter":  state,
		"count":   len(items),
		"total":   len(snap.Records),
		"version": snap.Version,
		"records": items,
	})
}

// ServeRecord returns one record by key
func (h *HTTPHandlerImpl) ServeRecord(w http.ResponseWriter, r *http.Request) {
	snap := h.dataStore.Snapshot()
	if !h.requireReady(w, snap) {
		return
	}

	key := recordKeyParam(r)
	if err := h.validator.ValidateKey(key); err != nil {
		logging.Warn("Unusual user input", "key", key)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, ok := h.dataStore.Lookup(key)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Record not found")
		return
	}

	if h.checkNotModified(w, r, snap) {
		return
	}
	h.RespondWithJSON(w, http.StatusOK, summarize(rec))
}

// ServeSelection applies one toggle or a clear to the selection in the query
// and returns the resulting keys, oldest first.
func (h *HTTPHandlerImpl) ServeSelection(w http.ResponseWriter, r *http.Request) {
	snap := h.dataStore.Snapshot()
	if !h.requireReady(w, snap) {
		return
	}

	sel := h.parseSelection(r)
	q := r.URL.Query()

	switch {
	case flagSet(q, "clear"):
		sel = sel.Clear()

	case q.Has("toggle"):
		key := q.Get("toggle")
		if err := h.validator.ValidateKey(key); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec, ok := h.dataStore.Lookup(key)
		if !ok {
			h.RespondWithError(w, http.StatusNotFound, "Record not found")
			return
		}
		sel = sel.Toggle(rec)
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"keys":     sel.Keys(),
		"count":    sel.Len(),
		"capacity": selection.Capacity,
		"full":     sel.Full(),
	})
}

type sideJSON struct {
	Kind    string       `json:"kind"`
	Value   record.Value `json:"value"`
	Display string       `json:"display"`
	Tint    string       `json:"tint,omitempty"`
}

type rowJSON struct {
	Field     string   `json:"field"`
	Label     string   `json:"label"`
	Different bool     `json:"different"`
	Tint      string   `json:"tint,omitempty"`
	Left      sideJSON `json:"left"`
	Right     sideJSON `json:"right"`
}

// ServeCompare returns the comparison of the selection in the query
func (h *HTTPHandlerImpl) ServeCompare(w http.ResponseWriter, r *http.Request) {
	snap := h.dataStore.Snapshot()
	if !h.requireReady(w, snap) {
		return
	}
	if h.checkNotModified(w, r, snap) {
		return
	}

	sel := h.parseSelection(r)
	res := comparison.Build(sel, h.names)

	payload := map[string]any{
		"mode":  res.Mode.String(),
		"count": res.Count,
		"keys":  sel.Keys(),
		"title": res.Title(),
	}

	switch res.Mode {
	case comparison.ModePrompt:
		payload["message"] = comparison.PromptMessage

	case comparison.ModeTable:
		onlyDiff := flagSet(r.URL.Query(), "only_diff")
		rows := res.Rows
		if onlyDiff {
			rows = res.OnlyDifferent()
		}

		out := make([]rowJSON, len(rows))
		for i, row := range rows {
			out[i] = rowJSON{
				Field:     row.Field,
				Label:     row.Label,
				Different: row.Different,
				Tint:      string(row.RowTint()),
				Left:      sideJSON{row.Left.Kind.String(), row.Left, row.Left.Display(), string(row.LeftTint())},
				Right:     sideJSON{row.Right.Kind.String(), row.Right, row.Right.Display(), string(row.RightTint())},
			}
		}

		changelog, err := comparison.Changelog(res.Left, res.Right)
		if err != nil {
			logging.Error("Failed to build changelog", "error", err)
			h.RespondWithError(w, http.StatusInternalServerError, "Failed to compare records")
			return
		}

		payload["headers"] = []string{res.LeftHeader(), res.RightHeader()}
		payload["rows"] = out
		payload["different_count"] = res.DifferentCount()
		payload["changelog"] = changelog
	}

	h.RespondWithJSON(w, http.StatusOK, payload)
}

// ServeFields returns the field label table
func (h *HTTPHandlerImpl) ServeFields(w http.ResponseWriter, r *http.Request) {
	snap := h.dataStore.Snapshot()
	if h.checkNotModified(w, r, snap) {
		return
	}
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"generation": h.names.Generation(),
		"fields":     h.names.Table(),
	})
}

// HealthResponse keeps the /health JSON field order stable
type HealthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Uptime        string         `json:"uptime"`
	Data          map[string]any `json:"data"`
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, code := h.health.HealthCheck()

	var uptime time.Duration
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	h.RespondWithJSON(w, code, HealthResponse{
		Status:        status,
		UptimeSeconds: uptime.Round(time.Second).Seconds(),
		Uptime:        formatUptimeHuman(uptime),
		Data:          details,
	})
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// ServeFavicon answers favicon requests without a body
func ServeFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
