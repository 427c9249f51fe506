package track

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wavedeck/wavedeck/internal/audio"
	"github.com/wavedeck/wavedeck/internal/chapter"
	"github.com/wavedeck/wavedeck/internal/storage"
)

type fakeDecoder struct {
	probeResult *audio.ProbeResult
	probeErr    error
	pcm         []byte
	pcmErr      error
}

func (d *fakeDecoder) Probe(_ context.Context, _ string) (*audio.ProbeResult, error) {
	if d.probeErr != nil {
		return nil, d.probeErr
	}
	return d.probeResult, nil
}

func (d *fakeDecoder) DecodePCM(_ context.Context, _ string, _ int) ([]byte, error) {
	if d.pcmErr != nil {
		return nil, d.pcmErr
	}
	return d.pcm, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Publish(event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) find(eventType EventType) (Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ev := range n.events {
		if ev.Type == eventType {
			return ev, true
		}
	}
	return Event{}, false
}

// publishRecorder captures Publish calls instead of talking to S3.
type publishRecorder struct {
	*storage.LocalStorage
	key         string
	contentType string
	data        []byte
}

func (p *publishRecorder) Publish(_ context.Context, key string, data io.Reader, contentType string) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	p.key, p.data, p.contentType = key, b, contentType
	return "https://example.com/" + key, nil
}

func newTestService(t *testing.T, dec audio.Decoder, opts ...ServiceOption) (*Service, *MemoryRepository, *recordingNotifier) {
	t.Helper()
	repo := NewMemoryRepository()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	extractor := audio.NewExtractor(dec, logger)
	svc := NewService(repo, extractor, store, logger,
		append([]ServiceOption{WithNotifier(notifier)}, opts...)...)
	return svc, repo, notifier
}

func mediaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("fake media"), 0o600); err != nil {
		t.Fatalf("failed to write media file: %v", err)
	}
	return path
}

func pcmBytes(samples ...int16) []byte {
	data := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		data = binary.LittleEndian.AppendUint16(data, uint16(s))
	}
	return data
}

func avProbe(sampleRate, frameRate string) *audio.ProbeResult {
	return &audio.ProbeResult{Streams: []audio.StreamInfo{
		{CodecType: "video", CodecName: "h264", AvgFrameRate: frameRate},
		{CodecType: "audio", CodecName: "aac", SampleRate: sampleRate, Channels: 2},
	}}
}

// readyService opens and extracts a 2 second silent track at 8000 Hz.
func readyService(t *testing.T, opts ...ServiceOption) (*Service, *recordingNotifier, string) {
	t.Helper()
	dec := &fakeDecoder{
		probeResult: avProbe("8000", "30/1"),
		pcm:         make([]byte, 32000),
	}
	svc, _, notifier := newTestService(t, dec, opts...)

	tr, err := svc.Open(context.Background(), OpenInput{Path: mediaFile(t)})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := svc.Extract(context.Background(), tr.ID); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	return svc, notifier, tr.ID
}

func TestService_Open_PathMode(t *testing.T) {
	svc, repo, notifier := newTestService(t, &fakeDecoder{})
	ctx := context.Background()
	path := mediaFile(t)

	tr, err := svc.Open(ctx, OpenInput{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if tr.Status != StatusPending {
		t.Errorf("expected status %s, got %s", StatusPending, tr.Status)
	}
	if tr.Title != "clip.mp4" {
		t.Errorf("expected title clip.mp4, got %s", tr.Title)
	}
	if tr.Temp {
		t.Error("path-mode tracks should not be marked temporary")
	}

	if _, err := repo.FindByID(ctx, tr.ID); err != nil {
		t.Fatalf("track should be saved in repository: %v", err)
	}

	ev, ok := notifier.find(EventTrackOpened)
	if !ok {
		t.Fatal("expected a track.opened event")
	}
	if ev.TrackID != tr.ID {
		t.Errorf("event track ID = %s, want %s", ev.TrackID, tr.ID)
	}
}

func TestService_Open_Upload(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDecoder{})
	ctx := context.Background()
	content := []byte("fake wav bytes")

	tr, err := svc.Open(ctx, OpenInput{
		MediaBase64: base64.StdEncoding.EncodeToString(content),
		Name:        "clip.wav",
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if !tr.Temp {
		t.Error("uploaded tracks should be marked temporary")
	}
	if filepath.Ext(tr.Path) != ".wav" {
		t.Errorf("staged path %s should keep the .wav extension", tr.Path)
	}
	if tr.Title != "clip.wav" {
		t.Errorf("expected title clip.wav, got %s", tr.Title)
	}

	staged, err := os.ReadFile(tr.Path)
	if err != nil {
		t.Fatalf("failed to read staged file: %v", err)
	}
	if !bytes.Equal(staged, content) {
		t.Error("staged content does not match the upload")
	}
}

func TestService_Open_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDecoder{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input OpenInput
	}{
		{name: "empty input", input: OpenInput{}},
		{name: "missing file", input: OpenInput{Path: "/does/not/exist.mp4"}},
		{name: "bad base64", input: OpenInput{MediaBase64: "!!! not base64 !!!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Open(ctx, tt.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestService_Extract_Success(t *testing.T) {
	dec := &fakeDecoder{
		probeResult: avProbe("48000", "30/1"),
		pcm:         pcmBytes(16384, -16384, 0, 8192),
	}
	svc, repo, notifier := newTestService(t, dec)
	ctx := context.Background()

	opened, err := svc.Open(ctx, OpenInput{Path: mediaFile(t)})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	tr, err := svc.Extract(ctx, opened.ID)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if tr.Status != StatusReady {
		t.Fatalf("expected status %s, got %s", StatusReady, tr.Status)
	}
	if tr.SampleRate != 48000 {
		t.Errorf("expected sample rate 48000, got %d", tr.SampleRate)
	}
	if tr.FrameRate != 30 {
		t.Errorf("expected frame rate 30, got %v", tr.FrameRate)
	}

	want := []float32{0.5, -0.5, 0, 0.25}
	if tr.Buffer == nil || len(tr.Buffer.Samples) != len(want) {
		t.Fatalf("expected %d samples, got %v", len(want), tr.Buffer.Len())
	}
	for i, s := range want {
		if tr.Buffer.Samples[i] != s {
			t.Errorf("sample %d = %v, want %v", i, tr.Buffer.Samples[i], s)
		}
	}

	// Initial session: playhead at zero, selection over the first tenth
	if tr.Position != 0 {
		t.Errorf("expected playhead at 0, got %v", tr.Position)
	}
	if math.Abs(tr.SelectionEnd-tr.Duration*0.1) > 1e-12 {
		t.Errorf("expected selection end %v, got %v", tr.Duration*0.1, tr.SelectionEnd)
	}

	saved, err := repo.FindByID(ctx, tr.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Status != StatusReady {
		t.Errorf("repository should hold the READY track, got %s", saved.Status)
	}

	ev, ok := notifier.find(EventTrackReady)
	if !ok {
		t.Fatal("expected a track.ready event")
	}
	if ev.Duration != tr.Duration {
		t.Errorf("event duration = %v, want %v", ev.Duration, tr.Duration)
	}
}

func TestService_Extract_NoAudioStream(t *testing.T) {
	dec := &fakeDecoder{
		probeResult: &audio.ProbeResult{Streams: []audio.StreamInfo{
			{CodecType: "video", CodecName: "h264", AvgFrameRate: "25/1"},
		}},
	}
	svc, _, notifier := newTestService(t, dec)
	ctx := context.Background()

	opened, _ := svc.Open(ctx, OpenInput{Path: mediaFile(t)})

	tr, err := svc.Extract(ctx, opened.ID)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if tr.Status != StatusFailed {
		t.Fatalf("expected status %s, got %s", StatusFailed, tr.Status)
	}
	if tr.Reason != ReasonNoAudioStream {
		t.Errorf("expected reason %s, got %s", ReasonNoAudioStream, tr.Reason)
	}
	if tr.Buffer != nil {
		t.Error("expected no buffer on a failed track")
	}

	ev, ok := notifier.find(EventTrackFailed)
	if !ok {
		t.Fatal("expected a track.failed event")
	}
	if ev.Reason != ReasonNoAudioStream {
		t.Errorf("event reason = %s, want %s", ev.Reason, ReasonNoAudioStream)
	}
}

func TestService_Extract_DecodeFailure(t *testing.T) {
	dec := &fakeDecoder{
		probeResult: avProbe("44100", "25/1"),
		pcmErr: &audio.DecodeError{
			Args:   []string{"-i", "clip.mp4"},
			Stderr: "boom: codec not found",
			Err:    errors.New("exit status 1"),
		},
	}
	svc, _, _ := newTestService(t, dec)
	ctx := context.Background()

	opened, _ := svc.Open(ctx, OpenInput{Path: mediaFile(t)})

	tr, err := svc.Extract(ctx, opened.ID)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if tr.Status != StatusFailed {
		t.Fatalf("expected status %s, got %s", StatusFailed, tr.Status)
	}
	if tr.Reason != ReasonDecodeError {
		t.Errorf("expected reason %s, got %s", ReasonDecodeError, tr.Reason)
	}
	if !strings.Contains(tr.Error, "boom: codec not found") {
		t.Errorf("expected failure detail to carry stderr, got %q", tr.Error)
	}
}

func TestService_Extract_TrackNotFound(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDecoder{})

	_, err := svc.Extract(context.Background(), "nonexistent")
	if !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestService_Extract_AlreadyExtracting(t *testing.T) {
	svc, repo, _ := newTestService(t, &fakeDecoder{probeResult: avProbe("8000", "")})
	ctx := context.Background()

	opened, _ := svc.Open(ctx, OpenInput{Path: mediaFile(t)})

	// Simulate an in-flight extraction
	tr, _ := repo.FindByID(ctx, opened.ID)
	_ = tr.BeginExtraction()
	_ = repo.Save(ctx, tr)

	_, err := svc.Extract(ctx, opened.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestService_ReExtractAfterFailure(t *testing.T) {
	dec := &fakeDecoder{
		probeResult: avProbe("8000", ""),
		pcmErr:      &audio.DecodeError{Stderr: "transient", Err: errors.New("exit status 1")},
	}
	svc, _, _ := newTestService(t, dec)
	ctx := context.Background()

	opened, _ := svc.Open(ctx, OpenInput{Path: mediaFile(t)})

	tr, err := svc.Extract(ctx, opened.ID)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if tr.Status != StatusFailed {
		t.Fatalf("expected first extraction to fail, got %s", tr.Status)
	}

	dec.pcmErr = nil
	dec.pcm = make([]byte, 16000)

	tr, err = svc.Extract(ctx, opened.ID)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if tr.Status != StatusReady {
		t.Errorf("expected re-extraction to succeed, got %s", tr.Status)
	}
	if tr.Reason != "" || tr.Error != "" {
		t.Errorf("expected failure state cleared, got reason %q error %q", tr.Reason, tr.Error)
	}
}

func TestService_Waveform(t *testing.T) {
	dec := &fakeDecoder{
		probeResult: avProbe("48000", ""),
		pcm:         pcmBytes(16384, 16384, -32768, -32768),
	}
	svc, _, _ := newTestService(t, dec, WithDefaultBlockSize(2))
	ctx := context.Background()

	opened, _ := svc.Open(ctx, OpenInput{Path: mediaFile(t)})
	if _, err := svc.Extract(ctx, opened.ID); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	view, err := svc.Waveform(ctx, opened.ID, 2)
	if err != nil {
		t.Fatalf("Waveform() error = %v", err)
	}

	want := []float64{0.5, 1}
	if len(view.Points) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(view.Points))
	}
	for i, p := range want {
		if math.Abs(view.Points[i]-p) > 1e-9 {
			t.Errorf("point %d = %v, want %v", i, view.Points[i], p)
		}
	}
	if len(view.Times) != len(view.Points) {
		t.Errorf("times length %d should match points length %d", len(view.Times), len(view.Points))
	}
	if view.SampleRate != 48000 {
		t.Errorf("sample rate = %d, want 48000", view.SampleRate)
	}
	if view.BlockSize != 2 {
		t.Errorf("block size = %d, want 2", view.BlockSize)
	}

	// Non-positive block size selects the configured default
	view, err = svc.Waveform(ctx, opened.ID, 0)
	if err != nil {
		t.Fatalf("Waveform() error = %v", err)
	}
	if view.BlockSize != 2 {
		t.Errorf("default block size = %d, want 2", view.BlockSize)
	}
}

func TestService_Waveform_PendingTrack(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDecoder{})
	ctx := context.Background()

	opened, _ := svc.Open(ctx, OpenInput{Path: mediaFile(t)})

	view, err := svc.Waveform(ctx, opened.ID, 100)
	if err != nil {
		t.Fatalf("Waveform() error = %v", err)
	}
	if len(view.Points) != 0 || len(view.Times) != 0 {
		t.Errorf("expected empty view for a pending track, got %d points", len(view.Points))
	}
}

func TestService_Spectrogram(t *testing.T) {
	svc, _, id := readyService(t) // 16000 samples at 8000 Hz
	ctx := context.Background()

	view, err := svc.Spectrogram(ctx, id, 0, 2, 256, -1)
	if err != nil {
		t.Fatalf("Spectrogram() error = %v", err)
	}
	if len(view.Frequencies) != 129 {
		t.Errorf("frequency bins = %d, want 129", len(view.Frequencies))
	}
	// (16000-256)/128 + 1 frames
	if len(view.Times) != 124 {
		t.Errorf("time bins = %d, want 124", len(view.Times))
	}

	// Window defaults to the configured 1024: (16000-1024)/512 + 1 frames
	view, err = svc.Spectrogram(ctx, id, 0, 2, 0, -1)
	if err != nil {
		t.Fatalf("Spectrogram() error = %v", err)
	}
	if len(view.Frequencies) != 513 {
		t.Errorf("frequency bins = %d, want 513", len(view.Frequencies))
	}
	if len(view.Times) != 30 {
		t.Errorf("time bins = %d, want 30", len(view.Times))
	}

	// Degenerate range yields an empty view, not an error
	view, err = svc.Spectrogram(ctx, id, 5, 6, 256, -1)
	if err != nil {
		t.Fatalf("Spectrogram() error = %v", err)
	}
	if len(view.Frequencies) != 0 || len(view.Times) != 0 || len(view.PowerDB) != 0 {
		t.Error("expected an empty view for a range beyond the track")
	}
}

func TestService_SetPosition(t *testing.T) {
	svc, notifier, id := readyService(t) // 2 seconds
	ctx := context.Background()

	tr, err := svc.SetPosition(ctx, id, 0.5)
	if err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	if tr.Position != 0.5 {
		t.Errorf("expected position 0.5, got %v", tr.Position)
	}

	// Clamped to the duration
	tr, _ = svc.SetPosition(ctx, id, 100)
	if tr.Position != 2 {
		t.Errorf("expected position clamped to 2, got %v", tr.Position)
	}

	// Persisted
	saved, _ := svc.Get(ctx, id)
	if saved.Position != 2 {
		t.Errorf("expected persisted position 2, got %v", saved.Position)
	}

	ev, ok := notifier.find(EventPositionChanged)
	if !ok {
		t.Fatal("expected a position.changed event")
	}
	if ev.Position == nil {
		t.Fatal("expected the event to carry the position")
	}
}

func TestService_SetSelection(t *testing.T) {
	svc, notifier, id := readyService(t)
	ctx := context.Background()

	tr, err := svc.SetSelection(ctx, id, 1.5, 0.5)
	if err != nil {
		t.Fatalf("SetSelection() error = %v", err)
	}
	if tr.SelectionStart != 0.5 || tr.SelectionEnd != 1.5 {
		t.Errorf("expected selection [0.5,1.5], got [%v,%v]", tr.SelectionStart, tr.SelectionEnd)
	}

	ev, ok := notifier.find(EventSelectionChanged)
	if !ok {
		t.Fatal("expected a selection.changed event")
	}
	if ev.Selection == nil || ev.Selection.Start != 0.5 || ev.Selection.End != 1.5 {
		t.Errorf("event selection = %+v", ev.Selection)
	}
}

func TestService_Seek(t *testing.T) {
	svc, _, id := readyService(t) // 2 seconds at 30 fps
	ctx := context.Background()

	tr, err := svc.SeekBy(ctx, id, 500)
	if err != nil {
		t.Fatalf("SeekBy() error = %v", err)
	}
	if math.Abs(tr.Position-0.5) > 1e-9 {
		t.Errorf("expected position 0.5, got %v", tr.Position)
	}

	tr, _ = svc.SeekBy(ctx, id, -100000)
	if tr.Position != 0 {
		t.Errorf("expected position 0, got %v", tr.Position)
	}

	// int(1000/30*3) truncates to 99ms
	tr, err = svc.SeekFrames(ctx, id, 3)
	if err != nil {
		t.Fatalf("SeekFrames() error = %v", err)
	}
	if math.Abs(tr.Position-0.099) > 1e-9 {
		t.Errorf("expected position 0.099, got %v", tr.Position)
	}
}

func TestService_ChapterFlow(t *testing.T) {
	svc, notifier, id := readyService(t)
	ctx := context.Background()

	if _, err := svc.AddChapter(ctx, id, chapter.Chapter{At: 90 * time.Second, Title: "Late"}); err != nil {
		t.Fatalf("AddChapter() error = %v", err)
	}
	if _, err := svc.AddChapter(ctx, id, chapter.Chapter{At: 0, Title: "Intro"}); err != nil {
		t.Fatalf("AddChapter() error = %v", err)
	}

	chapters, err := svc.Chapters(ctx, id)
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if len(chapters) != 2 || chapters[0].Title != "Late" {
		t.Fatalf("expected append order [Late, Intro], got %+v", chapters)
	}

	tr, err := svc.SortChapters(ctx, id)
	if err != nil {
		t.Fatalf("SortChapters() error = %v", err)
	}
	if tr.Chapters[0].Title != "Intro" || tr.Chapters[1].Title != "Late" {
		t.Errorf("expected sorted order [Intro, Late], got %+v", tr.Chapters)
	}

	tr, err = svc.ImportYouTube(ctx, id, "0:00 Opening\n1:30 Verse\nno timestamp here")
	if err != nil {
		t.Fatalf("ImportYouTube() error = %v", err)
	}
	if len(tr.Chapters) != 2 {
		t.Fatalf("expected 2 imported chapters, got %d", len(tr.Chapters))
	}
	if tr.Chapters[1].At != 90*time.Second {
		t.Errorf("expected second chapter at 1:30, got %v", tr.Chapters[1].At)
	}

	ev, ok := notifier.find(EventChaptersChanged)
	if !ok {
		t.Fatal("expected a chapters.changed event")
	}
	if ev.TrackID != id {
		t.Errorf("event track ID = %s, want %s", ev.TrackID, id)
	}
}

func TestService_SaveLoadChapters(t *testing.T) {
	dec := &fakeDecoder{probeResult: avProbe("8000", ""), pcm: make([]byte, 16000)}
	svc, _, _ := newTestService(t, dec)
	ctx := context.Background()

	dir := t.TempDir()
	media := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(media, []byte("fake"), 0o600); err != nil {
		t.Fatal(err)
	}

	opened, err := svc.Open(ctx, OpenInput{Path: media})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	id := opened.ID

	if _, err := svc.AddChapter(ctx, id, chapter.Chapter{At: 0, Title: "Intro"}); err != nil {
		t.Fatalf("AddChapter() error = %v", err)
	}

	// Empty path saves next to the media file
	path, err := svc.SaveChapters(ctx, id, "")
	if err != nil {
		t.Fatalf("SaveChapters() error = %v", err)
	}
	want := filepath.Join(dir, "video.txt")
	if path != want {
		t.Errorf("chapter path = %s, want %s", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("chapter file not written: %v", err)
	}

	// Clear and reload from the default path
	if _, err := svc.ReplaceChapters(ctx, id, nil); err != nil {
		t.Fatalf("ReplaceChapters() error = %v", err)
	}
	tr, err := svc.LoadChapters(ctx, id, "")
	if err != nil {
		t.Fatalf("LoadChapters() error = %v", err)
	}
	if len(tr.Chapters) != 1 || tr.Chapters[0].Title != "Intro" {
		t.Errorf("expected reloaded chapters, got %+v", tr.Chapters)
	}
}

func TestService_ExportChapters(t *testing.T) {
	svc, _, id := readyService(t)
	ctx := context.Background()

	_, _ = svc.AddChapter(ctx, id, chapter.Chapter{At: 0, Title: "Intro"})
	_, _ = svc.AddChapter(ctx, id, chapter.Chapter{At: 90 * time.Second, Title: "Verse"})

	var buf bytes.Buffer
	if err := svc.ExportChapters(ctx, id, &buf); err != nil {
		t.Fatalf("ExportChapters() error = %v", err)
	}

	want := "0:00:00.000 Intro\n0:01:30.000 Verse\n"
	if buf.String() != want {
		t.Errorf("exported %q, want %q", buf.String(), want)
	}
}

func TestService_Close(t *testing.T) {
	svc, repo, notifier := newTestService(t, &fakeDecoder{})
	ctx := context.Background()

	t.Run("removes staged media", func(t *testing.T) {
		tr, err := svc.Open(ctx, OpenInput{
			MediaBase64: base64.StdEncoding.EncodeToString([]byte("data")),
			Name:        "clip.wav",
		})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}

		if err := svc.Close(ctx, tr.ID); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		if _, err := repo.FindByID(ctx, tr.ID); !errors.Is(err, ErrTrackNotFound) {
			t.Errorf("expected track removed, got %v", err)
		}
		if _, err := os.Stat(tr.Path); !os.IsNotExist(err) {
			t.Errorf("expected staged file removed, got %v", err)
		}

		if _, ok := notifier.find(EventTrackClosed); !ok {
			t.Error("expected a track.closed event")
		}
	})

	t.Run("keeps user files", func(t *testing.T) {
		path := mediaFile(t)
		tr, err := svc.Open(ctx, OpenInput{Path: path})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}

		if err := svc.Close(ctx, tr.ID); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Errorf("user media file should survive close: %v", err)
		}
	})

	t.Run("unknown track", func(t *testing.T) {
		err := svc.Close(ctx, "nonexistent")
		if !errors.Is(err, ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})
}

func TestService_Archive_NotConfigured(t *testing.T) {
	svc, _, id := readyService(t)

	_, err := svc.Archive(context.Background(), id, 100)
	if !errors.Is(err, storage.ErrPublishNotConfigured) {
		t.Errorf("expected ErrPublishNotConfigured, got %v", err)
	}
}

func TestService_Archive_Publishes(t *testing.T) {
	dec := &fakeDecoder{
		probeResult: avProbe("8000", ""),
		pcm:         make([]byte, 32000), // 16000 samples
	}
	repo := NewMemoryRepository()
	local, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	recorder := &publishRecorder{LocalStorage: local}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, audio.NewExtractor(dec, logger), recorder, logger)
	ctx := context.Background()

	opened, err := svc.Open(ctx, OpenInput{Path: mediaFile(t)})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := svc.Extract(ctx, opened.ID); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	url, err := svc.Archive(ctx, opened.ID, 100)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	wantKey := "archives/" + opened.ID + ".json"
	if recorder.key != wantKey {
		t.Errorf("published key = %s, want %s", recorder.key, wantKey)
	}
	if recorder.contentType != "application/json" {
		t.Errorf("content type = %s, want application/json", recorder.contentType)
	}
	if url != "https://example.com/"+wantKey {
		t.Errorf("url = %s", url)
	}

	var doc archiveDocument
	if err := json.Unmarshal(recorder.data, &doc); err != nil {
		t.Fatalf("published document is not JSON: %v", err)
	}
	if doc.TrackID != opened.ID {
		t.Errorf("doc track_id = %s, want %s", doc.TrackID, opened.ID)
	}
	if doc.SampleRate != 8000 {
		t.Errorf("doc sample_rate = %d, want 8000", doc.SampleRate)
	}
	if doc.Resolution != 100 {
		t.Errorf("doc resolution = %d, want 100", doc.Resolution)
	}
	// 16000 samples at block 160 give exactly 100 peaks
	if len(doc.Peaks) != 100 {
		t.Errorf("doc peaks = %d, want 100", len(doc.Peaks))
	}
}

func TestDefaultChapterPath(t *testing.T) {
	tests := []struct {
		media string
		want  string
	}{
		{"/media/video.mp4", "/media/video.txt"},
		{"/media/audio.wav", "/media/audio.txt"},
		{"/media/noext", "/media/noext.txt"},
		{"clip.mkv", "clip.txt"},
	}

	for _, tt := range tests {
		if got := DefaultChapterPath(tt.media); got != tt.want {
			t.Errorf("DefaultChapterPath(%q) = %q, want %q", tt.media, got, tt.want)
		}
	}
}
