// Package track provides the Track aggregate for managing opened media and
// its decoded audio. It includes the Track entity with extraction state
// machine transitions, session state (position, selection, chapters), and
// repository interfaces for persistence.
package track

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/wavedeck/wavedeck/internal/audio"
	"github.com/wavedeck/wavedeck/internal/chapter"
	"github.com/wavedeck/wavedeck/internal/track/id"
)

// DefaultFrameRate is assumed when the container reports no usable video
// frame rate. Frame stepping then moves in 40ms increments.
const DefaultFrameRate = 25.0

// initialSelectionFraction is the share of the track covered by the
// selection right after extraction.
const initialSelectionFraction = 0.1

// Status represents the current extraction state of a Track.
type Status string

const (
	// StatusPending indicates the track is opened but not yet decoded.
	StatusPending Status = "PENDING"
	// StatusExtracting indicates audio is being decoded.
	StatusExtracting Status = "EXTRACTING"
	// StatusReady indicates the audio buffer is available.
	StatusReady Status = "READY"
	// StatusFailed indicates extraction failed; see Reason and Error.
	StatusFailed Status = "FAILED"
)

// Reason classifies why extraction failed.
type Reason string

const (
	// ReasonNoAudioStream indicates the media file holds no audio stream.
	ReasonNoAudioStream Reason = "NO_AUDIO_STREAM"
	// ReasonDecodeError indicates the decoder failed; Error holds detail.
	ReasonDecodeError Reason = "DECODE_ERROR"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
// READY and FAILED both allow re-extraction.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusExtracting},
	StatusExtracting: {StatusReady, StatusFailed},
	StatusReady:      {StatusExtracting},
	StatusFailed:     {StatusExtracting},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Track represents an opened media file aggregate.
// It holds the decoded audio buffer plus the session state a frontend
// operates on: playhead position, selection, and chapter marks.
type Track struct {
	mu sync.RWMutex

	// ID is the unique identifier for this track.
	ID string
	// Path is the media file location on disk.
	Path string
	// Title is the display name, defaulting to the file's basename.
	Title string
	// Temp marks media staged in temporary storage, removed on close.
	Temp bool
	// Status is the current extraction state.
	Status Status
	// Reason classifies the failure when Status is FAILED.
	Reason Reason
	// Error contains failure detail text if extraction failed.
	Error string
	// SampleRate is the decoded buffer's sample rate in Hz.
	SampleRate int
	// Duration is the decoded audio length in seconds.
	Duration float64
	// FrameRate is the video frame rate used for frame stepping.
	FrameRate float64
	// Buffer holds the decoded samples. It is immutable once set; clones
	// share the pointer.
	Buffer *audio.Buffer
	// Chapters are the named time marks on this track.
	Chapters []chapter.Chapter
	// Position is the playhead in seconds, clamped to [0, Duration].
	Position float64
	// SelectionStart is the selected region start in seconds.
	SelectionStart float64
	// SelectionEnd is the selected region end in seconds.
	SelectionEnd float64
	// CreatedAt is when the track was opened.
	CreatedAt time.Time
	// UpdatedAt is when the track was last updated.
	UpdatedAt time.Time
}

// New creates a new Track for the given media path with a generated ID and
// initial PENDING status. An empty title defaults to the file's basename.
func New(path, title string) *Track {
	return NewWithID(id.Generate(), path, title)
}

// NewWithID creates a new Track with the specified ID and initial PENDING
// status. Useful for testing or when the ID needs to be externally generated.
func NewWithID(trackID, path, title string) *Track {
	if title == "" {
		title = filepath.Base(path)
	}
	now := time.Now()
	return &Track{
		ID:        trackID,
		Path:      path,
		Title:     title,
		Status:    StatusPending,
		FrameRate: DefaultFrameRate,
		Chapters:  make([]chapter.Chapter, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the track status to the specified state.
// Returns an error wrapping ErrInvalidTransition, naming both states, if the
// transition is not allowed.
func (t *Track) TransitionTo(status Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !canTransition(t.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, status)
	}

	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

// BeginExtraction transitions the track to EXTRACTING and clears any
// previous failure state. Valid from PENDING, READY, and FAILED.
func (t *Track) BeginExtraction() error {
	if err := t.TransitionTo(StatusExtracting); err != nil {
		return err
	}
	t.mu.Lock()
	t.Reason = ""
	t.Error = ""
	t.mu.Unlock()
	return nil
}

// MarkReady transitions the track to READY with the decoded buffer and
// resets the session: playhead at zero, selection over the first tenth of
// the track.
func (t *Track) MarkReady(buf *audio.Buffer) error {
	if err := t.TransitionTo(StatusReady); err != nil {
		return err
	}
	if buf == nil {
		buf = &audio.Buffer{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.Buffer = buf
	t.SampleRate = buf.SampleRate
	t.Duration = buf.Duration()
	t.Reason = ""
	t.Error = ""
	t.Position = 0
	t.SelectionStart = 0
	t.SelectionEnd = t.Duration * initialSelectionFraction
	return nil
}

// MarkFailed transitions the track to FAILED with a failure classification
// and detail text. The buffer and derived audio fields are cleared.
func (t *Track) MarkFailed(reason Reason, detail string) error {
	if err := t.TransitionTo(StatusFailed); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.Reason = reason
	t.Error = detail
	t.Buffer = nil
	t.SampleRate = 0
	t.Duration = 0
	t.Position = 0
	t.SelectionStart = 0
	t.SelectionEnd = 0
	return nil
}

// GetStatus returns the current track status (thread-safe).
func (t *Track) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// SetFrameRate sets the frame rate used for frame stepping.
// Non-positive rates fall back to DefaultFrameRate.
func (t *Track) SetFrameRate(fps float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	t.FrameRate = fps
	t.UpdatedAt = time.Now()
}

// SetPosition moves the playhead, clamped to [0, Duration].
func (t *Track) SetPosition(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Position = t.clampTime(seconds)
	t.UpdatedAt = time.Now()
}

// SetSelection sets the selected region. Both ends are clamped to
// [0, Duration] and swapped if inverted.
func (t *Track) SetSelection(start, end float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start = t.clampTime(start)
	end = t.clampTime(end)
	if start > end {
		start, end = end, start
	}
	t.SelectionStart = start
	t.SelectionEnd = end
	t.UpdatedAt = time.Now()
}

// SeekBy moves the playhead by a millisecond delta, clamping at zero and at
// the track duration.
func (t *Track) SeekBy(deltaMS int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seekBy(deltaMS)
}

// SeekFrames moves the playhead by video frames. The step is
// int(1000/FrameRate*count) milliseconds, truncated.
func (t *Track) SeekFrames(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fps := t.FrameRate
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	t.seekBy(int(1000.0 / fps * float64(count)))
}

// seekBy assumes t.mu is held.
func (t *Track) seekBy(deltaMS int) {
	posMS := t.Position*1000.0 + float64(deltaMS)
	if posMS < 0 {
		posMS = 0
	}
	t.Position = t.clampTime(posMS / 1000.0)
	t.UpdatedAt = time.Now()
}

// clampTime assumes t.mu is held.
func (t *Track) clampTime(seconds float64) float64 {
	if seconds < 0 {
		return 0
	}
	if seconds > t.Duration {
		return t.Duration
	}
	return seconds
}

// SetChapters replaces the chapter marks for this track.
func (t *Track) SetChapters(chapters []chapter.Chapter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Chapters = chapters
	t.UpdatedAt = time.Now()
}

// Clone creates a copy of the track for safe reads. The audio buffer is
// shared by pointer since buffers are immutable; the chapter slice is copied.
func (t *Track) Clone() *Track {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chapters := make([]chapter.Chapter, len(t.Chapters))
	copy(chapters, t.Chapters)

	return &Track{
		ID:             t.ID,
		Path:           t.Path,
		Title:          t.Title,
		Temp:           t.Temp,
		Status:         t.Status,
		Reason:         t.Reason,
		Error:          t.Error,
		SampleRate:     t.SampleRate,
		Duration:       t.Duration,
		FrameRate:      t.FrameRate,
		Buffer:         t.Buffer,
		Chapters:       chapters,
		Position:       t.Position,
		SelectionStart: t.SelectionStart,
		SelectionEnd:   t.SelectionEnd,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
