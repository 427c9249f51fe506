// Package device lists and selects audio output devices for the frontend's
// output switcher. The production enumerator wraps PortAudio; the Manager
// keeps the selection stable across device refreshes.
package device

import "errors"

// ErrNoDevices is returned when no output devices are available.
var ErrNoDevices = errors.New("no output devices available")

// ErrDeviceNotFound is returned when a selection does not match any device.
var ErrDeviceNotFound = errors.New("output device not found")

// Info describes one audio output device.
type Info struct {
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

// Enumerator lists audio output devices.
// The production implementation queries PortAudio; tests substitute fakes.
type Enumerator interface {
	Outputs() ([]Info, error)
}
