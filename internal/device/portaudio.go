package device

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Function variables wrap the PortAudio calls so tests can run without an
// audio host.
var (
	paInitialize    = portaudio.Initialize
	paTerminate     = portaudio.Terminate
	paDevices       = portaudio.Devices
	paDefaultOutput = portaudio.DefaultOutputDevice
)

// Initialize starts the PortAudio host. Callers must pair it with Terminate.
func Initialize() error {
	if err := paInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate shuts down the PortAudio host.
func Terminate() error {
	if err := paTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// PortAudioEnumerator lists output devices through PortAudio.
// Initialize must have been called before Outputs.
type PortAudioEnumerator struct{}

var _ Enumerator = PortAudioEnumerator{}

// Outputs returns every device with at least one output channel. Indexes
// refer to positions in the full PortAudio device list, so they may have
// gaps where input-only devices were skipped.
func (PortAudioEnumerator) Outputs() ([]Info, error) {
	devices, err := paDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list audio devices: %w", err)
	}

	defaultID := ""
	if def, err := paDefaultOutput(); err == nil && def != nil {
		defaultID = qualifiedID(def)
	}

	infos := make([]Info, 0, len(devices))
	for i, d := range devices {
		if d == nil || d.MaxOutputChannels <= 0 {
			continue
		}
		id := qualifiedID(d)
		infos = append(infos, Info{
			Index:             i,
			ID:                id,
			Name:              d.Name,
			IsDefault:         id == defaultID,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
		})
	}
	return infos, nil
}

// qualifiedID prefixes the device name with its host API name so devices
// that appear under several host APIs stay distinguishable.
func qualifiedID(d *portaudio.DeviceInfo) string {
	if d.HostApi != nil && d.HostApi.Name != "" {
		return d.HostApi.Name + ": " + d.Name
	}
	return d.Name
}
