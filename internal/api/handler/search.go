package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iconidentify/tikgrab/internal/domain"
	"github.com/iconidentify/tikgrab/internal/service"
	"github.com/iconidentify/tikgrab/pkg/tikwm"
)

// SearchHandler handles search HTTP requests.
type SearchHandler struct {
	media  *service.MediaService
	logger *slog.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(media *service.MediaService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		media:  media,
		logger: logger,
	}
}

// SearchResponse contains search results.
type SearchResponse struct {
	Method  string           `json:"method"`
	Keyword string           `json:"keyword"`
	Results []map[string]any `json:"results"`
	Total   int              `json:"total"`
}

// Search handles GET /api/v1/search?method=keyword&q=...&count=10&cursor=0
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	keyword := q.Get("q")
	if keyword == "" {
		h.writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	method := tikwm.SearchMethod(q.Get("method"))
	if method == "" {
		method = tikwm.SearchKeyword
	}

	count := 10
	if c := q.Get("count"); c != "" {
		if parsed, err := strconv.Atoi(c); err == nil && parsed > 0 && parsed <= 50 {
			count = parsed
		}
	}
	cursor := 0
	if c := q.Get("cursor"); c != "" {
		if parsed, err := strconv.Atoi(c); err == nil && parsed >= 0 {
			cursor = parsed
		}
	}

	results, err := h.media.Search(r.Context(), method, keyword, count, cursor)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSearchMethod) {
			h.writeError(w, http.StatusBadRequest, "invalid search method")
			return
		}
		h.logger.Error("search failed", "error", err)
		h.writeError(w, http.StatusBadGateway, "search failed")
		return
	}

	h.writeJSON(w, http.StatusOK, SearchResponse{
		Method:  string(method),
		Keyword: keyword,
		Results: results,
		Total:   len(results),
	})
}

func (h *SearchHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *SearchHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
