package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ahmethakanbesel/stockmailer/internal/request"
)

const maxBodyBytes = 1 << 16

type handler struct {
	requests *request.Service
	symbols  SymbolLookup
}

type symbolInfo struct {
	Symbol string `json:"symbol"`
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var p request.CreateParams
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.requests.Create(r.Context(), p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/requests/"+strconv.FormatInt(req.ID, 10))
	writeJSON(w, http.StatusCreated, req)
}

func (h *handler) getRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := h.requests.Get(r.Context(), request.GetParams{ID: id})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *handler) listRequests(w http.ResponseWriter, r *http.Request) {
	p := request.ListParams{
		Status: request.Status(r.URL.Query().Get("status")),
		Symbol: strings.TrimSpace(r.URL.Query().Get("symbol")),
	}

	reqs, err := h.requests.List(r.Context(), p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// getSymbol reports whether a ticker is listed and, if so, its company name.
func (h *handler) getSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	info := symbolInfo{Symbol: symbol, Exists: h.symbols.Exists(r.Context(), symbol)}
	if info.Exists {
		info.Name = h.symbols.DisplayName(r.Context(), symbol)
	}
	writeJSON(w, http.StatusOK, info)
}
