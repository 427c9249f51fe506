package audio

import (
	"strconv"
	"strings"
)

// StreamInfo is one entry of ffprobe's stream listing. ffprobe encodes the
// numeric fields as strings, so accessors parse on demand.
type StreamInfo struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
	Duration     string `json:"duration"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// ProbeResult is the parsed ffprobe stream listing for one media file.
type ProbeResult struct {
	Streams []StreamInfo `json:"streams"`
}

// AudioStream returns the first stream with codec_type "audio".
func (p *ProbeResult) AudioStream() (StreamInfo, bool) {
	return p.streamOfType("audio")
}

// VideoStream returns the first stream with codec_type "video".
func (p *ProbeResult) VideoStream() (StreamInfo, bool) {
	return p.streamOfType("video")
}

func (p *ProbeResult) streamOfType(codecType string) (StreamInfo, bool) {
	if p == nil {
		return StreamInfo{}, false
	}
	for _, s := range p.Streams {
		if s.CodecType == codecType {
			return s, true
		}
	}
	return StreamInfo{}, false
}

// SampleRateHz returns the stream's sample rate, or fallback when the field
// is absent or not a positive integer.
func (s StreamInfo) SampleRateHz(fallback int) int {
	v, err := strconv.Atoi(s.SampleRate)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// FrameRate returns the stream's average frame rate in frames per second.
// ffprobe reports it as a ratio like "30000/1001"; unknown rates ("0/0",
// empty) return 0.
func (s StreamInfo) FrameRate() float64 {
	numStr, denStr, found := strings.Cut(s.AvgFrameRate, "/")
	if !found {
		if v, err := strconv.ParseFloat(s.AvgFrameRate, 64); err == nil && v > 0 {
			return v
		}
		return 0
	}

	num, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0
	}
	den, err := strconv.ParseFloat(denStr, 64)
	if err != nil || den == 0 || num <= 0 {
		return 0
	}
	return num / den
}

// Seconds returns the stream duration in seconds, or 0 when unknown.
func (s StreamInfo) Seconds() float64 {
	v, err := strconv.ParseFloat(s.Duration, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
