package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/albumdb/internal/catalog/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/albumdb/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/albumdb/pkg/metrics"
)

type ArtistsResponse struct {
	Album   string   `json:"album"`
	Track   *int     `json:"track,omitempty"`
	Artists []string `json:"artists"`
	Cached  bool     `json:"cached"`
}

type Handler struct {
	store   catalog.Store
	cache   *cache.LookupCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds the query handler. lookupCache and m may be nil.
func New(store catalog.Store, lookupCache *cache.LookupCache, m *metrics.Metrics) *Handler {
	return &Handler{
		store:   store,
		cache:   lookupCache,
		metrics: m,
		logger:  slog.Default().With("component", "catalog-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/albums/{album}/artists", h.Artists)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Artists serves album-level lookups, or track-level ones when ?track= is
// given. Unknown albums and tracks yield an empty list, not a 404.
func (h *Handler) Artists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	album := r.PathValue("album")
	if album == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "album is required"))
		return
	}
	key := cache.Key{Strategy: h.store.Kind().String(), Album: album}
	if raw := r.URL.Query().Get("track"); raw != "" {
		track, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "track %q is not an integer", raw))
			return
		}
		key.Track, key.HasTrack = track, true
	} else if !h.store.Ready() {
		// Album-level results are undefined until the store is finalized.
		h.writeError(w, apperrors.New(apperrors.ErrNotFinalized, http.StatusServiceUnavailable, "store is still loading"))
		return
	}

	artists, cached := h.lookup(ctx, key)
	if artists == nil {
		artists = []string{}
	}
	resp := ArtistsResponse{Album: album, Artists: artists, Cached: cached}
	if key.HasTrack {
		resp.Track = &key.Track
	}
	log.Debug("lookup served",
		"album", album,
		"track", key.Track,
		"track_level", key.HasTrack,
		"artists", len(artists),
		"cached", cached,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) lookup(ctx context.Context, key cache.Key) ([]string, bool) {
	compute := func() []string { return h.timedLookup(key) }
	if h.cache == nil {
		return compute(), false
	}
	return h.cache.GetOrCompute(ctx, key, compute)
}

func (h *Handler) timedLookup(key cache.Key) []string {
	granularity := "album"
	start := time.Now()
	var artists []string
	if key.HasTrack {
		granularity = "track"
		artists = h.store.LookupTrack(key.Album, key.Track)
	} else {
		artists = h.store.Lookup(key.Album)
	}
	if h.metrics != nil {
		strategy := h.store.Kind().String()
		h.metrics.LookupLatency.WithLabelValues(strategy, granularity).Observe(time.Since(start).Seconds())
		result := "found"
		if len(artists) == 0 {
			result = "empty"
		}
		h.metrics.LookupsTotal.WithLabelValues(strategy, granularity, result).Inc()
	}
	return artists
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"store": h.store.Stats()}
	if h.cache != nil {
		hits, misses := h.cache.Stats()
		resp["cache"] = map[string]int64{"hits": hits, "misses": misses}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		message = ae.Message
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
