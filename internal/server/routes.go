package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing. The hub is optional;
// without one the event stream endpoint is not registered.
func NewRouter(h *Handlers, hub *Hub, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Register routes with method-based patterns (Go 1.22+)
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /tracks", h.OpenTrack)
	mux.HandleFunc("GET /tracks", h.ListTracks)
	mux.HandleFunc("GET /tracks/{id}", h.GetTrack)
	mux.HandleFunc("DELETE /tracks/{id}", h.DeleteTrack)
	mux.HandleFunc("POST /tracks/{id}/extract", h.ExtractTrack)

	mux.HandleFunc("GET /tracks/{id}/waveform", h.Waveform)
	mux.HandleFunc("GET /tracks/{id}/spectrogram", h.Spectrogram)
	mux.HandleFunc("POST /tracks/{id}/archive", h.Archive)

	mux.HandleFunc("GET /tracks/{id}/session", h.GetSession)
	mux.HandleFunc("PUT /tracks/{id}/position", h.SetPosition)
	mux.HandleFunc("PUT /tracks/{id}/selection", h.SetSelection)
	mux.HandleFunc("POST /tracks/{id}/seek", h.SeekBy)
	mux.HandleFunc("POST /tracks/{id}/seek/frames", h.SeekFrames)

	mux.HandleFunc("GET /tracks/{id}/chapters", h.GetChapters)
	mux.HandleFunc("PUT /tracks/{id}/chapters", h.ReplaceChapters)
	mux.HandleFunc("POST /tracks/{id}/chapters", h.AddChapter)
	mux.HandleFunc("POST /tracks/{id}/chapters/sort", h.SortChapters)
	mux.HandleFunc("POST /tracks/{id}/chapters/import", h.ImportChapters)
	mux.HandleFunc("POST /tracks/{id}/chapters/load", h.LoadChapters)
	mux.HandleFunc("POST /tracks/{id}/chapters/save", h.SaveChapters)
	mux.HandleFunc("GET /tracks/{id}/chapters/export", h.ExportChapters)

	mux.HandleFunc("GET /devices", h.Devices)
	mux.HandleFunc("GET /devices/current", h.CurrentDevice)
	mux.HandleFunc("POST /devices/select", h.SelectDevice)
	mux.HandleFunc("POST /devices/default", h.DefaultDevice)

	if hub != nil {
		mux.HandleFunc("GET /ws", hub.ServeWS)
	}

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
