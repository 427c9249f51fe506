package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wavedeck/wavedeck/internal/timecode"
	"github.com/wavedeck/wavedeck/internal/track"
)

// GetSession handles GET /tracks/{id}/session requests, returning the
// playhead and selection without the rest of the track summary.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	tr, err := h.tracks.Get(r.Context(), trackID)
	if err != nil {
		h.respondServiceError(w, err, "get session", "SESSION_FETCH_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(tr))
}

// SetPosition handles PUT /tracks/{id}/position requests. Out-of-range
// positions are clamped to the track, not rejected.
func (h *Handlers) SetPosition(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	tr, err := h.tracks.SetPosition(r.Context(), trackID, req.Position)
	if err != nil {
		h.respondServiceError(w, err, "set position", "POSITION_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toTrackResponse(tr))
}

// SetSelection handles PUT /tracks/{id}/selection requests. Inverted ranges
// are swapped and out-of-range bounds clamped, not rejected.
func (h *Handlers) SetSelection(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	tr, err := h.tracks.SetSelection(r.Context(), trackID, req.Start, req.End)
	if err != nil {
		h.respondServiceError(w, err, "set selection", "SELECTION_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toTrackResponse(tr))
}

// SeekBy handles POST /tracks/{id}/seek requests.
func (h *Handlers) SeekBy(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var req SeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	tr, err := h.tracks.SeekBy(r.Context(), trackID, req.DeltaMS)
	if err != nil {
		h.respondServiceError(w, err, "seek", "SEEK_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toTrackResponse(tr))
}

// SeekFrames handles POST /tracks/{id}/seek/frames requests, stepping the
// playhead by whole video frames.
func (h *Handlers) SeekFrames(w http.ResponseWriter, r *http.Request) {
	trackID, ok := requireTrackID(w, r)
	if !ok {
		return
	}

	var req SeekFramesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	tr, err := h.tracks.SeekFrames(r.Context(), trackID, req.Frames)
	if err != nil {
		h.respondServiceError(w, err, "seek frames", "SEEK_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toTrackResponse(tr))
}

// toSessionResponse converts a track's session state into its HTTP
// representation.
func toSessionResponse(tr *track.Track) SessionResponse {
	return SessionResponse{
		Position: tr.Position,
		Timecode: timecode.FormatMillis(time.Duration(tr.Position * float64(time.Second))),
		Selection: SelectionRange{
			Start: tr.SelectionStart,
			End:   tr.SelectionEnd,
		},
	}
}
