package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dailycast/internal/config"
	"dailycast/internal/feed"
	"dailycast/internal/journal"
	"dailycast/internal/logging"
	"dailycast/internal/store"
)

type httpHandlers struct {
	cfg       *config.Config
	store     *store.Store
	assembler *feed.Assembler
	journal   *journal.Journal
	logger    *slog.Logger
}

func newServer(cfg *config.Config, st *store.Store, assembler *feed.Assembler, jrnl *journal.Journal, logger *slog.Logger) *http.Server {
	h := &httpHandlers{
		cfg:       cfg,
		store:     st,
		assembler: assembler,
		journal:   jrnl,
		logger:    logging.NewComponentLogger(logger, "http"),
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", h.handleHealth)
	router.Get("/feed/{locale}", h.handleFeed)
	router.Get("/book/{id}/audio", h.handleAudio)
	router.Get("/book/{id}/cover", h.handleCover)
	router.Get("/api/status", h.handleStatus)

	return &http.Server{
		Addr:         cfg.Paths.Bind,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
}

func (h *httpHandlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (h *httpHandlers) handleFeed(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	if !h.cfg.HasLocale(locale) {
		http.Error(w, "unknown locale", http.StatusBadRequest)
		return
	}

	// Without a page parameter the whole archive renders unpaginated.
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		page = parsed
	}

	data, err := h.assembler.Render(r.Context(), locale, page, h.baseURL(r))
	if err != nil {
		h.logger.Error("feed render failed",
			logging.String(logging.FieldLocale, locale),
			logging.Error(err))
		http.Error(w, "feed unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write(data)
}

func (h *httpHandlers) handleAudio(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "audio/mp4")
	http.ServeFile(w, r, h.store.FinalAudioPath(id))
}

func (h *httpHandlers) handleCover(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, h.store.CoverPath(id))
}

// itemID validates the id path segment against the store. Unknown or
// malformed ids are client errors, matching what feed consumers see when a
// stale feed references a pruned item.
func (h *httpHandlers) itemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" || strings.ContainsAny(id, "/\\.") {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return "", false
	}
	if !h.store.Exists(id) {
		http.Error(w, "unknown item id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

type statusLocale struct {
	Locale    string `json:"locale"`
	Items     int    `json:"items"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type statusRun struct {
	RunID      string `json:"run_id"`
	Locale     string `json:"locale"`
	Outcome    string `json:"outcome"`
	ItemID     string `json:"item_id,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

type statusResponse struct {
	Locales []statusLocale `json:"locales"`
	Runs    []statusRun    `json:"runs"`
}

func (h *httpHandlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Locales: make([]statusLocale, 0, len(h.cfg.Locales))}
	for _, locale := range h.cfg.Locales {
		entry := statusLocale{Locale: locale}
		if ids, err := h.store.ReadIndex(locale); err == nil {
			entry.Items = len(ids)
		}
		if modTime, err := h.store.IndexLastModified(locale); err == nil {
			entry.UpdatedAt = modTime.UTC().Format(time.RFC3339)
		}
		resp.Locales = append(resp.Locales, entry)
	}

	if h.journal != nil {
		runs, err := h.journal.Recent(r.Context(), 20)
		if err != nil {
			h.logger.Warn("failed to read run journal", logging.Error(err))
		}
		for _, run := range runs {
			entry := statusRun{
				RunID:     run.RunID,
				Locale:    run.Locale,
				Outcome:   run.Outcome,
				ItemID:    run.ItemID,
				StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
				Detail:    run.Detail,
			}
			if !run.FinishedAt.IsZero() {
				entry.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
			}
			resp.Runs = append(resp.Runs, entry)
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("failed to encode status", logging.Error(err))
	}
}

func (h *httpHandlers) baseURL(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
