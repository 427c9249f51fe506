// Package server provides the HTTP server for the wavedeck API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// OpenTrackRequest is the HTTP request body for opening a track. Exactly one
// media source is expected: a path to a file the server can read, or the
// base64-encoded media content itself.
type OpenTrackRequest struct {
	// Path references a media file on the server's filesystem.
	Path string `json:"path" validate:"required_without=MediaBase64"`
	// MediaBase64 is the base64-encoded media content to upload.
	MediaBase64 string `json:"media_base64" validate:"required_without=Path,omitempty,base64"`
	// Name is the display title; for uploads it also supplies the filename
	// whose extension is kept for the staged copy.
	Name string `json:"name"`
}

// OpenTrackResponse is the HTTP response after opening a track.
type OpenTrackResponse struct {
	// ID is the unique identifier for the created track.
	ID string `json:"id"`
	// Title is the display title derived from the request.
	Title string `json:"title"`
	// Status is the initial track status.
	Status string `json:"status"`
}

// SelectionRange is the selected time range in seconds.
type SelectionRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TrackResponse is the HTTP response for track details.
type TrackResponse struct {
	// ID is the unique identifier for the track.
	ID string `json:"id"`
	// Title is the display title.
	Title string `json:"title"`
	// Path is the media file backing the track.
	Path string `json:"path"`
	// Status is the current track status.
	Status string `json:"status"`
	// Reason classifies the failure when Status is FAILED.
	Reason string `json:"reason,omitempty"`
	// Error carries the failure detail when Status is FAILED.
	Error string `json:"error,omitempty"`
	// Duration is the decoded audio length in seconds.
	Duration float64 `json:"duration"`
	// SampleRate is the decoded audio sample rate in Hz.
	SampleRate int `json:"sample_rate"`
	// FrameRate is the video frame rate used for frame stepping.
	FrameRate float64 `json:"frame_rate"`
	// Position is the playhead position in seconds.
	Position float64 `json:"position"`
	// Selection is the selected time range.
	Selection SelectionRange `json:"selection"`
	// ChapterCount is the number of chapter marks on the track.
	ChapterCount int `json:"chapter_count"`
}

// PositionRequest is the HTTP request body for moving the playhead.
type PositionRequest struct {
	// Position is the target playhead position in seconds.
	Position float64 `json:"position"`
}

// SelectionRequest is the HTTP request body for changing the selection.
type SelectionRequest struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SeekRequest is the HTTP request body for a relative seek.
type SeekRequest struct {
	// DeltaMS is the signed seek distance in milliseconds.
	DeltaMS int `json:"delta_ms"`
}

// SeekFramesRequest is the HTTP request body for a frame-wise seek.
type SeekFramesRequest struct {
	// Frames is the signed number of video frames to step.
	Frames int `json:"frames"`
}

// SessionResponse is the HTTP response for a track's session state.
type SessionResponse struct {
	// Position is the playhead position in seconds.
	Position float64 `json:"position"`
	// Timecode is Position rendered as H:MM:SS.mmm.
	Timecode string `json:"timecode"`
	// Selection is the selected time range.
	Selection SelectionRange `json:"selection"`
}

// WaveformResponse is the HTTP response for the amplitude envelope.
type WaveformResponse struct {
	// Points are the per-block RMS amplitudes, peak-normalized to [0, 1].
	Points []float64 `json:"points"`
	// Times are the block positions in seconds, aligned with Points.
	Times []float64 `json:"times"`
	// Duration is the track length in seconds.
	Duration float64 `json:"duration"`
	// SampleRate is the decoded audio sample rate in Hz.
	SampleRate int `json:"sample_rate"`
	// BlockSize is the number of samples aggregated per point.
	BlockSize int `json:"block_size"`
}

// SpectrogramResponse is the HTTP response for the power spectrogram.
// PowerDB[i][j] holds the power in dB at Frequencies[i] and Times[j].
type SpectrogramResponse struct {
	// Frequencies are the FFT bin centers in Hz.
	Frequencies []float64 `json:"frequencies"`
	// Times are absolute track positions in seconds.
	Times []float64 `json:"times"`
	// PowerDB is the frequency-by-time power grid in dB.
	PowerDB [][]float64 `json:"power_db"`
}

// ChapterPayload is one chapter mark in HTTP requests and responses.
type ChapterPayload struct {
	// Time is the chapter position in seconds.
	Time float64 `json:"time" validate:"gte=0"`
	// Timecode is Time rendered as H:MM:SS.mmm. Response only; ignored on
	// input.
	Timecode string `json:"timecode,omitempty"`
	// Title is the chapter name.
	Title string `json:"title"`
}

// ChaptersResponse is the HTTP response for chapter listings and edits.
type ChaptersResponse struct {
	Chapters []ChapterPayload `json:"chapters"`
}

// ReplaceChaptersRequest is the HTTP request body for replacing the
// chapter list wholesale.
type ReplaceChaptersRequest struct {
	Chapters []ChapterPayload `json:"chapters" validate:"dive"`
}

// ImportChaptersRequest is the HTTP request body for importing chapters
// from YouTube description text.
type ImportChaptersRequest struct {
	// Text is the description text, one "M:SS Title" line per chapter.
	Text string `json:"text" validate:"required"`
}

// ChapterFileRequest is the HTTP request body for loading or saving a
// chapter file. An empty path uses the media file's default chapter path.
type ChapterFileRequest struct {
	Path string `json:"path"`
}

// SaveChaptersResponse is the HTTP response after saving a chapter file.
type SaveChaptersResponse struct {
	// Path is the file the chapters were written to.
	Path string `json:"path"`
}

// ExportChaptersResponse is the HTTP response for a chapter file rendering.
type ExportChaptersResponse struct {
	// Text is the chapter list in chapter file format.
	Text string `json:"text"`
}

// ArchiveRequest is the HTTP request body for publishing a waveform archive.
type ArchiveRequest struct {
	// Resolution is the target number of peaks; zero selects the configured
	// default.
	Resolution int `json:"resolution" validate:"omitempty,min=1"`
}

// ArchiveResponse is the HTTP response after publishing a waveform archive.
type ArchiveResponse struct {
	// URL is where the published archive document can be fetched.
	URL string `json:"url"`
}

// DeviceResponse is one audio output device in HTTP responses.
type DeviceResponse struct {
	// Index is the device's position in the host's device list.
	Index int `json:"index"`
	// ID is the host-API-qualified name, stable across refreshes.
	ID string `json:"id"`
	// Name is the device's display name.
	Name string `json:"name"`
	// IsDefault marks the system default output device.
	IsDefault bool `json:"is_default"`
	// MaxOutputChannels is the device's output channel count.
	MaxOutputChannels int `json:"max_output_channels"`
	// DefaultSampleRate is the device's preferred sample rate in Hz.
	DefaultSampleRate float64 `json:"default_sample_rate"`
}

// SelectDeviceRequest is the HTTP request body for selecting an output
// device, by list index or by ID.
type SelectDeviceRequest struct {
	// Index selects by device list index. A pointer distinguishes index 0
	// from an absent field.
	Index *int `json:"index"`
	// ID selects by host-API-qualified name.
	ID string `json:"id"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
