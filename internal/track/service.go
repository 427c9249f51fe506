package track

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wavedeck/wavedeck/internal/analysis"
	"github.com/wavedeck/wavedeck/internal/audio"
	"github.com/wavedeck/wavedeck/internal/chapter"
	"github.com/wavedeck/wavedeck/internal/storage"
)

const (
	// DefaultBlockSize is the waveform downsampling block used when a
	// request does not specify one.
	DefaultBlockSize = 100
	// DefaultArchiveResolution is the target peak count for published
	// archive documents.
	DefaultArchiveResolution = 1000
)

// ErrInvalidInput is returned when an open request is malformed.
// The HTTP layer maps it to a 400.
var ErrInvalidInput = errors.New("invalid input")

// Service orchestrates track lifecycle and analysis on top of the
// repository, the audio extractor, and storage.
type Service struct {
	repo      Repository
	extractor *audio.Extractor
	store     storage.Storage
	notifier  Notifier
	logger    *slog.Logger

	defaultBlockSize  int
	defaultWindowSize int
	archiveResolution int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithNotifier sets the event sink for track state changes.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithDefaultBlockSize sets the waveform block size used when requests do
// not specify one. Non-positive values are ignored.
func WithDefaultBlockSize(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.defaultBlockSize = n
		}
	}
}

// WithDefaultWindowSize sets the spectrogram window used when requests do
// not specify one. Non-positive values are ignored.
func WithDefaultWindowSize(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.defaultWindowSize = n
		}
	}
}

// WithArchiveResolution sets the default archive peak count.
// Non-positive values are ignored.
func WithArchiveResolution(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.archiveResolution = n
		}
	}
}

// NewService creates a track Service.
func NewService(repo Repository, extractor *audio.Extractor, store storage.Storage, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:              repo,
		extractor:         extractor,
		store:             store,
		logger:            logger,
		defaultBlockSize:  DefaultBlockSize,
		defaultWindowSize: analysis.DefaultWindowSize,
		archiveResolution: DefaultArchiveResolution,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenInput contains the parameters for opening a track.
// Exactly one of Path and MediaBase64 must be set.
type OpenInput struct {
	// Path references an existing media file on disk.
	Path string
	// MediaBase64 is base64-encoded media content to stage in temp storage.
	MediaBase64 string
	// Name is the display title, and for uploads the filename hint whose
	// extension survives staging.
	Name string
}

// Open creates a PENDING track for the given media and persists it.
// It does not extract audio; callers follow up with Extract, usually in the
// background.
func (s *Service) Open(ctx context.Context, input OpenInput) (*Track, error) {
	path := input.Path
	staged := false

	switch {
	case path != "":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: media file not accessible: %s", ErrInvalidInput, path)
		}
	case input.MediaBase64 != "":
		data, err := base64.StdEncoding.DecodeString(input.MediaBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: decode media content: %v", ErrInvalidInput, err)
		}
		name := input.Name
		if name == "" {
			name = "upload"
		}
		path, err = s.store.SaveTemp(ctx, name, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("stage media: %w", err)
		}
		staged = true
	default:
		return nil, fmt.Errorf("%w: either path or media content is required", ErrInvalidInput)
	}

	tr := New(path, input.Name)
	tr.Temp = staged

	s.logger.Info("opening track",
		slog.String("track_id", tr.ID),
		slog.String("path", path),
		slog.String("title", tr.Title),
	)

	if err := s.repo.Save(ctx, tr); err != nil {
		s.logger.Error("failed to save track",
			slog.String("track_id", tr.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.publish(Event{Type: EventTrackOpened, TrackID: tr.ID, Title: tr.Title, Status: tr.Status})
	return tr, nil
}

// Extract decodes the track's audio and moves it to READY, or to FAILED
// with a classified reason. Extraction failures are recorded on the track
// and do not surface as errors; the returned error covers unknown tracks,
// extraction already in progress, and persistence problems.
func (s *Service) Extract(ctx context.Context, trackID string) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, trackID)
	if err != nil {
		return nil, err
	}

	if err := tr.BeginExtraction(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, err
	}

	s.logger.Info("extracting audio",
		slog.String("track_id", tr.ID),
		slog.String("path", tr.Path),
	)

	tr.SetFrameRate(s.probeFrameRate(ctx, tr.Path))

	buf, err := s.extractor.Extract(ctx, tr.Path)
	if err != nil {
		reason := ReasonDecodeError
		if errors.Is(err, audio.ErrNoAudioStream) {
			reason = ReasonNoAudioStream
		}
		if terr := tr.MarkFailed(reason, err.Error()); terr != nil {
			return nil, terr
		}
		s.logger.Error("extraction failed",
			slog.String("track_id", tr.ID),
			slog.String("reason", string(reason)),
			slog.String("error", err.Error()),
		)
		if err := s.repo.Save(ctx, tr); err != nil {
			return nil, err
		}
		s.publish(Event{Type: EventTrackFailed, TrackID: tr.ID, Status: StatusFailed, Reason: reason})
		return tr, nil
	}

	if terr := tr.MarkReady(buf); terr != nil {
		return nil, terr
	}
	s.logger.Info("extraction complete",
		slog.String("track_id", tr.ID),
		slog.Int("sample_rate", tr.SampleRate),
		slog.Float64("duration", tr.Duration),
	)
	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventTrackReady, TrackID: tr.ID, Status: StatusReady, Duration: tr.Duration})
	return tr, nil
}

// probeFrameRate returns the first video stream's frame rate, falling back
// to DefaultFrameRate when probing fails or reports nothing usable.
func (s *Service) probeFrameRate(ctx context.Context, path string) float64 {
	probe, err := s.extractor.Decoder().Probe(ctx, path)
	if err != nil {
		s.logger.Debug("frame rate probe failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return DefaultFrameRate
	}
	if stream, ok := probe.VideoStream(); ok {
		if fps := stream.FrameRate(); fps > 0 {
			return fps
		}
	}
	return DefaultFrameRate
}

// Get retrieves a track by ID.
func (s *Service) Get(ctx context.Context, id string) (*Track, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all open tracks.
func (s *Service) List(ctx context.Context) ([]*Track, error) {
	return s.repo.List(ctx)
}

// Close removes a track and cleans up staged media.
func (s *Service) Close(ctx context.Context, id string) error {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if tr.Temp {
		if err := s.store.RemoveTemp(ctx, tr.Path); err != nil {
			s.logger.Warn("failed to remove staged media",
				slog.String("track_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("closed track", slog.String("track_id", id))
	s.publish(Event{Type: EventTrackClosed, TrackID: id})
	return nil
}

// WaveformView is the downsampled amplitude envelope of a track.
type WaveformView struct {
	Points     []float64 `json:"points"`
	Times      []float64 `json:"times"`
	Duration   float64   `json:"duration"`
	SampleRate int       `json:"sample_rate"`
	BlockSize  int       `json:"block_size"`
}

// Waveform computes the track's amplitude envelope. A non-positive
// blockSize selects the configured default. Tracks without a decoded
// buffer yield empty point and time slices, not an error.
func (s *Service) Waveform(ctx context.Context, id string, blockSize int) (WaveformView, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return WaveformView{}, err
	}
	if blockSize <= 0 {
		blockSize = s.defaultBlockSize
	}
	return WaveformView{
		Points:     analysis.Waveform(tr.Buffer, blockSize),
		Times:      analysis.TimeAxis(tr.Buffer, blockSize),
		Duration:   tr.Duration,
		SampleRate: tr.SampleRate,
		BlockSize:  blockSize,
	}, nil
}

// Spectrogram computes the track's power spectrum over [start, end]
// seconds. A non-positive window selects the configured default; a
// negative overlap selects half the window. Tracks without a decoded
// buffer yield a zero view, not an error.
func (s *Service) Spectrogram(ctx context.Context, id string, start, end float64, window, overlap int) (analysis.SpectrogramView, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return analysis.SpectrogramView{}, err
	}
	if window <= 0 {
		window = s.defaultWindowSize
	}
	opts := []analysis.SpectrogramOption{analysis.WithWindowSize(window)}
	if overlap >= 0 {
		opts = append(opts, analysis.WithOverlap(overlap))
	}
	return analysis.Spectrogram(tr.Buffer, start, end, opts...), nil
}

// SetPosition moves the track's playhead and returns the updated track.
func (s *Service) SetPosition(ctx context.Context, id string, seconds float64) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr.SetPosition(seconds)
	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventPositionChanged, TrackID: id, Position: ptr(tr.Position)})
	return tr, nil
}

// SetSelection sets the track's selected region and returns the updated track.
func (s *Service) SetSelection(ctx context.Context, id string, start, end float64) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr.SetSelection(start, end)
	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, err
	}
	s.publish(Event{
		Type:      EventSelectionChanged,
		TrackID:   id,
		Selection: &Selection{Start: tr.SelectionStart, End: tr.SelectionEnd},
	})
	return tr, nil
}

// SeekBy moves the playhead by a millisecond delta and returns the updated
// track.
func (s *Service) SeekBy(ctx context.Context, id string, deltaMS int) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr.SeekBy(deltaMS)
	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventPositionChanged, TrackID: id, Position: ptr(tr.Position)})
	return tr, nil
}

// SeekFrames moves the playhead by video frames and returns the updated
// track.
func (s *Service) SeekFrames(ctx context.Context, id string, frames int) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr.SeekFrames(frames)
	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventPositionChanged, TrackID: id, Position: ptr(tr.Position)})
	return tr, nil
}

// Chapters returns the track's chapter marks.
func (s *Service) Chapters(ctx context.Context, id string) ([]chapter.Chapter, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return tr.Chapters, nil
}

// ReplaceChapters swaps the track's chapter list and returns the updated
// track.
func (s *Service) ReplaceChapters(ctx context.Context, id string, chapters []chapter.Chapter) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr.SetChapters(chapters)
	return s.saveWithChapters(ctx, tr)
}

// AddChapter appends one chapter mark and returns the updated track.
func (s *Service) AddChapter(ctx context.Context, id string, ch chapter.Chapter) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr.SetChapters(append(tr.Chapters, ch))
	return s.saveWithChapters(ctx, tr)
}

// SortChapters stably orders the track's chapters by time and returns the
// updated track.
func (s *Service) SortChapters(ctx context.Context, id string) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chapters := tr.Chapters
	chapter.Sort(chapters)
	tr.SetChapters(chapters)
	return s.saveWithChapters(ctx, tr)
}

// ImportYouTube replaces the track's chapters with ones parsed from a
// pasted YouTube-style description and returns the updated track.
func (s *Service) ImportYouTube(ctx context.Context, id, text string) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr.SetChapters(chapter.ParseYouTube(text))
	return s.saveWithChapters(ctx, tr)
}

// LoadChapters reads a chapter file into the track. An empty path loads
// from the media file's default chapter path.
func (s *Service) LoadChapters(ctx context.Context, id, path string) (*Track, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = DefaultChapterPath(tr.Path)
	}
	chapters, err := chapter.Load(path)
	if err != nil {
		return nil, err
	}
	tr.SetChapters(chapters)

	s.logger.Info("loaded chapters",
		slog.String("track_id", id),
		slog.String("path", path),
		slog.Int("count", len(chapters)),
	)
	return s.saveWithChapters(ctx, tr)
}

// SaveChapters writes the track's chapters to a file and returns the path
// used. An empty path saves to the media file's default chapter path.
func (s *Service) SaveChapters(ctx context.Context, id, path string) (string, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = DefaultChapterPath(tr.Path)
	}
	if err := chapter.Save(path, tr.Chapters); err != nil {
		return "", err
	}

	s.logger.Info("saved chapters",
		slog.String("track_id", id),
		slog.String("path", path),
		slog.Int("count", len(tr.Chapters)),
	)
	return path, nil
}

// ExportChapters writes the track's chapters in chapter file format.
func (s *Service) ExportChapters(ctx context.Context, id string, w io.Writer) error {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return chapter.Write(w, tr.Chapters)
}

// saveWithChapters persists a chapter mutation and publishes the change.
func (s *Service) saveWithChapters(ctx context.Context, tr *Track) (*Track, error) {
	if err := s.repo.Save(ctx, tr); err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventChaptersChanged, TrackID: tr.ID, ChapterCount: len(tr.Chapters)})
	return tr, nil
}

// DefaultChapterPath derives the chapter file path for a media file: the
// media path with its extension replaced by .txt.
func DefaultChapterPath(mediaPath string) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".txt"
}

// archiveDocument is the published JSON shape for a track archive.
type archiveDocument struct {
	TrackID    string    `json:"track_id"`
	Title      string    `json:"title"`
	Duration   float64   `json:"duration"`
	SampleRate int       `json:"sample_rate"`
	Resolution int       `json:"resolution"`
	Peaks      []float32 `json:"peaks"`
}

// Archive publishes a compact waveform summary of the track as JSON and
// returns its URL. A non-positive resolution selects the configured
// default. Returns storage.ErrPublishNotConfigured when no publishing
// backend is available.
func (s *Service) Archive(ctx context.Context, id string, resolution int) (string, error) {
	tr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if resolution <= 0 {
		resolution = s.archiveResolution
	}

	blockSize := 1
	if n := tr.Buffer.Len(); n > resolution {
		blockSize = n / resolution
	}
	peaks64 := analysis.Waveform(tr.Buffer, blockSize)
	peaks := make([]float32, len(peaks64))
	for i, p := range peaks64 {
		peaks[i] = float32(p)
	}

	doc := archiveDocument{
		TrackID:    tr.ID,
		Title:      tr.Title,
		Duration:   tr.Duration,
		SampleRate: tr.SampleRate,
		Resolution: resolution,
		Peaks:      peaks,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal archive: %w", err)
	}

	key := "archives/" + tr.ID + ".json"
	url, err := s.store.Publish(ctx, key, bytes.NewReader(data), "application/json")
	if err != nil {
		return "", err
	}

	s.logger.Info("published archive",
		slog.String("track_id", tr.ID),
		slog.String("url", url),
		slog.Int("peaks", len(peaks)),
	)
	return url, nil
}

// publish sends an event to the notifier when one is configured.
func (s *Service) publish(event Event) {
	if s.notifier != nil {
		s.notifier.Publish(event)
	}
}

func ptr(v float64) *float64 {
	return &v
}
