package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/wavedeck/wavedeck/internal/analysis"
	"github.com/wavedeck/wavedeck/internal/device"
	"github.com/wavedeck/wavedeck/internal/storage"
	"github.com/wavedeck/wavedeck/internal/track"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	tracks             *track.Service
	devices            *device.Manager
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncExtract bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncExtraction enables or disables background extraction.
// When disabled, OpenTrack only creates the track and ExtractTrack runs
// synchronously before responding.
func WithAsyncExtraction(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncExtract = enabled
	}
}

// WithDeviceManager wires the audio output device manager. Without it the
// device endpoints report that devices are disabled.
func WithDeviceManager(m *device.Manager) HandlerOption {
	return func(h *Handlers) {
		h.devices = m
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(tracks *track.Service, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		tracks:             tracks,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncExtract: true, // Default to enabled
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// OpenTrack handles POST /tracks requests.
func (h *Handlers) OpenTrack(w http.ResponseWriter, r *http.Request) {
	var req OpenTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	input := track.OpenInput{
		Path:        req.Path,
		MediaBase64: req.MediaBase64,
		Name:        req.Name,
	}

	// Create the track first (synchronously)
	tr, err := h.tracks.Open(r.Context(), input)
	if err != nil {
		if errors.Is(err, track.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
			return
		}
		h.logger.Error("failed to open track",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to open track", "TRACK_CREATION_FAILED")
		return
	}

	// Start extraction in background with a detached context
	// Use context.WithoutCancel to prevent cancellation when the request ends
	if h.enableAsyncExtract {
		go func(ctx context.Context, trackID string) {
			if _, extractErr := h.tracks.Extract(ctx, trackID); extractErr != nil {
				h.logger.Error("background extraction failed",
					slog.String("track_id", trackID),
					slog.String("error", extractErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), tr.ID)
	}

	h.logger.Info("track created",
		slog.String("track_id", tr.ID),
		slog.String("title", tr.Title),
	)

	writeJSON(w, http.StatusAccepted, OpenTrackResponse{
		ID:     tr.ID,
		Title:  tr.Title,
		Status: string(tr.Status),
	})
}

// ListTracks handles GET /tracks requests.
func (h *Handlers) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.tracks.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list tracks",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list tracks", "TRACK_LIST_FAILED")
		return
	}

	resp := make([]TrackResponse, 0, len(tracks))
	for _, tr := range tracks {
		resp = append(resp, toTrackResponse(tr))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTrack handles GET /tracks/{id} requests.
func (h *Handlers) GetTrack(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	tr, err := h.tracks.Get(r.Context(), trackID)
	if err != nil {
		h.respondServiceError(w, err, "get track", "TRACK_FETCH_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toTrackResponse(tr))
}

// ExtractTrack handles POST /tracks/{id}/extract requests. It re-runs audio
// extraction, which also serves as the retry path for FAILED tracks.
func (h *Handlers) ExtractTrack(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	if h.enableAsyncExtract {
		tr, err := h.tracks.Get(r.Context(), trackID)
		if err != nil {
			h.respondServiceError(w, err, "get track", "TRACK_FETCH_FAILED")
			return
		}
		go func(ctx context.Context, id string) {
			if _, extractErr := h.tracks.Extract(ctx, id); extractErr != nil {
				h.logger.Error("background extraction failed",
					slog.String("track_id", id),
					slog.String("error", extractErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), trackID)
		writeJSON(w, http.StatusAccepted, toTrackResponse(tr))
		return
	}

	tr, err := h.tracks.Extract(r.Context(), trackID)
	if err != nil {
		h.respondServiceError(w, err, "extract track", "EXTRACTION_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toTrackResponse(tr))
}

// DeleteTrack handles DELETE /tracks/{id} requests.
func (h *Handlers) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	if err := h.tracks.Close(r.Context(), trackID); err != nil {
		h.respondServiceError(w, err, "close track", "TRACK_CLOSE_FAILED")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Waveform handles GET /tracks/{id}/waveform requests.
func (h *Handlers) Waveform(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}
	blockSize, ok := h.intQuery(w, r, "block_size", 0)
	if !ok {
		return
	}

	view, err := h.tracks.Waveform(r.Context(), trackID, blockSize)
	if err != nil {
		h.respondServiceError(w, err, "compute waveform", "WAVEFORM_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, WaveformResponse{
		Points:     view.Points,
		Times:      view.Times,
		Duration:   view.Duration,
		SampleRate: view.SampleRate,
		BlockSize:  view.BlockSize,
	})
}

// Spectrogram handles GET /tracks/{id}/spectrogram requests. Without
// explicit start and end parameters the track's current selection is
// analyzed.
func (h *Handlers) Spectrogram(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}
	window, ok := h.intQuery(w, r, "window", 0)
	if !ok {
		return
	}
	overlap, ok := h.intQuery(w, r, "overlap", -1)
	if !ok {
		return
	}

	q := r.URL.Query()
	var start, end float64
	if q.Get("start") == "" || q.Get("end") == "" {
		tr, err := h.tracks.Get(r.Context(), trackID)
		if err != nil {
			h.respondServiceError(w, err, "get track", "TRACK_FETCH_FAILED")
			return
		}
		start, end = tr.SelectionStart, tr.SelectionEnd
	}
	if start, ok = h.floatQuery(w, r, "start", start); !ok {
		return
	}
	if end, ok = h.floatQuery(w, r, "end", end); !ok {
		return
	}

	view, err := h.tracks.Spectrogram(r.Context(), trackID, start, end, window, overlap)
	if err != nil {
		h.respondServiceError(w, err, "compute spectrogram", "SPECTROGRAM_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toSpectrogramResponse(view))
}

// Archive handles POST /tracks/{id}/archive requests.
func (h *Handlers) Archive(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	// The body is optional; an empty one selects the configured resolution.
	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	url, err := h.tracks.Archive(r.Context(), trackID, req.Resolution)
	if err != nil {
		h.respondServiceError(w, err, "publish archive", "ARCHIVE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, ArchiveResponse{URL: url})
}

// respondServiceError maps track service errors onto HTTP responses.
// Unexpected errors are logged and reported with the given code.
func (h *Handlers) respondServiceError(w http.ResponseWriter, err error, action, code string) {
	switch {
	case errors.Is(err, track.ErrTrackNotFound):
		writeError(w, http.StatusNotFound, "track not found", "TRACK_NOT_FOUND")
	case errors.Is(err, track.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	case errors.Is(err, track.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error(), "EXTRACTION_CONFLICT")
	case errors.Is(err, storage.ErrPublishNotConfigured):
		writeError(w, http.StatusConflict, "publishing is not configured", "ARCHIVE_NOT_CONFIGURED")
	default:
		h.logger.Error("failed to "+action,
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to "+action, code)
	}
}

// requireTrackID reads the {id} path value, writing a 400 when it is empty.
func requireTrackID(w http.ResponseWriter, r *http.Request) (string, bool) {
	trackID := r.PathValue("id")
	if trackID == "" {
		writeError(w, http.StatusBadRequest, "track ID is required", "MISSING_TRACK_ID")
		return "", false
	}
	return trackID, true
}

// intQuery reads an integer query parameter, writing a 400 on a malformed
// value. An absent parameter yields the fallback.
func (h *Handlers) intQuery(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be an integer", "INVALID_QUERY")
		return 0, false
	}
	return v, true
}

// floatQuery reads a float query parameter, writing a 400 on a malformed
// value. An absent parameter yields the fallback.
func (h *Handlers) floatQuery(w http.ResponseWriter, r *http.Request, name string, fallback float64) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be a number", "INVALID_QUERY")
		return 0, false
	}
	return v, true
}

// toTrackResponse converts a domain track into its HTTP representation.
func toTrackResponse(tr *track.Track) TrackResponse {
	return TrackResponse{
		ID:           tr.ID,
		Title:        tr.Title,
		Path:         tr.Path,
		Status:       string(tr.Status),
		Reason:       string(tr.Reason),
		Error:        tr.Error,
		Duration:     tr.Duration,
		SampleRate:   tr.SampleRate,
		FrameRate:    tr.FrameRate,
		Position:     tr.Position,
		Selection:    SelectionRange{Start: tr.SelectionStart, End: tr.SelectionEnd},
		ChapterCount: len(tr.Chapters),
	}
}

// toSpectrogramResponse converts the analysis view, normalizing nil slices
// so empty results serialize as [] rather than null.
func toSpectrogramResponse(view analysis.SpectrogramView) SpectrogramResponse {
	resp := SpectrogramResponse{
		Frequencies: view.Frequencies,
		Times:       view.Times,
		PowerDB:     view.PowerDB,
	}
	if resp.Frequencies == nil {
		resp.Frequencies = []float64{}
	}
	if resp.Times == nil {
		resp.Times = []float64{}
	}
	if resp.PowerDB == nil {
		resp.PowerDB = [][]float64{}
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
