package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/giygas/smpc-comparator/comparison"
	"github.com/giygas/smpc-comparator/filter"
	"github.com/giygas/smpc-comparator/interfaces"
	"github.com/giygas/smpc-comparator/logging"
	"github.com/giygas/smpc-comparator/record"
	"github.com/giygas/smpc-comparator/selection"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// loadingRefreshSeconds is how often the loading page reloads itself
const loadingRefreshSeconds = 3

type pageView struct {
	Refresh       int
	Message       string
	Filter        filter.State
	FilterError   string
	SelectedKeys  []string
	SelectedCount int
	Capacity      int
	ClearURL      string
	Products      []productRow
	Comparison    *comparisonView
}

type productRow struct {
	Name        string
	Auth        string
	Form        string
	Composition string
	Selected    bool
	Disabled    bool
	ToggleURL   string
}

type comparisonView struct {
	Title       string
	Prompt      string
	LeftHeader  string
	RightHeader string
	Rows        []comparison.Row
}

// pageURL encodes the page state into a link to /
func pageURL(state filter.State, keys []string) string {
	q := url.Values{}
	if state.Name != "" {
		q.Set("name", state.Name)
	}
	if state.Auth != "" {
		q.Set("auth", state.Auth)
	}
	for _, k := range keys {
		q.Add("sel", k)
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// ServePage renders the comparator. Filters and the selection live in the
// query string, so every button is a link to the next state.
func (h *HTTPHandlerImpl) ServePage(w http.ResponseWriter, r *http.Request) {
	snap := h.dataStore.Snapshot()

	switch snap.State {
	case interfaces.StateLoading:
		h.render(w, http.StatusServiceUnavailable, "loading", pageView{Refresh: loadingRefreshSeconds})
		return
	case interfaces.StateError:
		msg := "data fetch failed"
		if snap.Err != nil {
			msg = snap.Err.Error()
		}
		h.render(w, http.StatusBadGateway, "error", pageView{Message: msg})
		return
	}

	state, filterErr := h.parseFilter(r)
	sel := h.parseSelection(r)
	view := pageView{
		Filter:        state,
		SelectedKeys:  sel.Keys(),
		SelectedCount: sel.Len(),
		Capacity:      selection.Capacity,
		ClearURL:      pageURL(state, nil),
	}

	// An unusable filter keeps the page and the selection, with no products
	code := http.StatusOK
	var matched []record.Record
	if filterErr != nil {
		code = http.StatusBadRequest
		view.FilterError = filterErr.Error()
	} else {
		matched = filter.Apply(snap.Records, state)
	}

	for _, rec := range matched {
		selected := sel.Contains(rec.Key)
		view.Products = append(view.Products, productRow{
			Name:        cellText(rec.Name()),
			Auth:        cellText(rec.AuthorisationNumber()),
			Form:        cellText(rec.PharmaceuticalForm()),
			Composition: rec.Composition(),
			Selected:    selected,
			Disabled:    sel.Full() && !selected,
			ToggleURL:   pageURL(state, sel.Toggle(rec).Keys()),
		})
	}

	if res := comparison.Build(sel, h.names); res.Mode != comparison.ModeNone {
		cv := &comparisonView{Title: res.Title()}
		if res.Mode == comparison.ModePrompt {
			cv.Prompt = comparison.PromptMessage
		} else {
			cv.LeftHeader = res.LeftHeader()
			cv.RightHeader = res.RightHeader()
			cv.Rows = res.Rows
		}
		view.Comparison = cv
	}

	h.render(w, code, "page", view)
}

func (h *HTTPHandlerImpl) render(w http.ResponseWriter, code int, name string, view pageView) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, view); err != nil {
		logging.Error("Failed to render page", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if code == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Debug("Failed to write page", "error", err)
	}
}
