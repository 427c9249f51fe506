package device

import (
	"fmt"
	"sync"
)

// Manager tracks which output device is selected. The selection is keyed by
// the device ID so it survives refreshes where indexes shift; when the
// selected device disappears the manager falls back to the default output.
type Manager struct {
	mu       sync.Mutex
	enum     Enumerator
	devices  []Info
	selected string
}

// NewManager creates a manager on top of the given enumerator. Devices are
// enumerated lazily on first use.
func NewManager(enum Enumerator) *Manager {
	return &Manager{enum: enum}
}

// List returns the known output devices. With refresh set, or on first use,
// the list is re-read from the enumerator.
func (m *Manager) List(refresh bool) ([]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if refresh || m.devices == nil {
		if err := m.refreshLocked(); err != nil {
			return nil, err
		}
	}

	out := make([]Info, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

// Current returns the selected output device. Before any selection it
// returns the system default.
func (m *Manager) Current() (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devices == nil {
		if err := m.refreshLocked(); err != nil {
			return Info{}, err
		}
	}
	return m.currentLocked()
}

// SelectByIndex selects the device at the given list index.
func (m *Manager) SelectByIndex(index int) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devices == nil {
		if err := m.refreshLocked(); err != nil {
			return Info{}, err
		}
	}
	for _, d := range m.devices {
		if d.Index == index {
			m.selected = d.ID
			return d, nil
		}
	}
	return Info{}, fmt.Errorf("%w: index %d", ErrDeviceNotFound, index)
}

// SelectByID selects the device with the given ID.
func (m *Manager) SelectByID(id string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devices == nil {
		if err := m.refreshLocked(); err != nil {
			return Info{}, err
		}
	}
	for _, d := range m.devices {
		if d.ID == id {
			m.selected = d.ID
			return d, nil
		}
	}
	return Info{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
}

// SelectDefault clears any explicit selection and returns the system
// default output device.
func (m *Manager) SelectDefault() (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devices == nil {
		if err := m.refreshLocked(); err != nil {
			return Info{}, err
		}
	}
	m.selected = ""
	return m.currentLocked()
}

// refreshLocked re-reads the device list and re-resolves the selection.
// The caller must hold m.mu.
func (m *Manager) refreshLocked() error {
	devices, err := m.enum.Outputs()
	if err != nil {
		return err
	}
	if devices == nil {
		devices = []Info{}
	}
	m.devices = devices

	if m.selected != "" && !m.hasLocked(m.selected) {
		m.selected = ""
	}
	return nil
}

// currentLocked resolves the selection against the device list, preferring
// the explicit selection, then the default device, then the first device.
// The caller must hold m.mu.
func (m *Manager) currentLocked() (Info, error) {
	if len(m.devices) == 0 {
		return Info{}, ErrNoDevices
	}
	if m.selected != "" {
		for _, d := range m.devices {
			if d.ID == m.selected {
				return d, nil
			}
		}
	}
	for _, d := range m.devices {
		if d.IsDefault {
			return d, nil
		}
	}
	return m.devices[0], nil
}

func (m *Manager) hasLocked(id string) bool {
	for _, d := range m.devices {
		if d.ID == id {
			return true
		}
	}
	return false
}
