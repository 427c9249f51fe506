package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wavedeck/wavedeck/internal/device"
)

// Devices handles GET /devices requests. The refresh query parameter forces
// re-enumeration of the audio host.
func (h *Handlers) Devices(w http.ResponseWriter, r *http.Request) {
	m, ok := h.deviceManager(w)
	if !ok {
		return
	}

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	devices, err := m.List(refresh)
	if err != nil {
		h.respondDeviceError(w, err)
		return
	}

	resp := make([]DeviceResponse, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, toDeviceResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CurrentDevice handles GET /devices/current requests.
func (h *Handlers) CurrentDevice(w http.ResponseWriter, r *http.Request) {
	m, ok := h.deviceManager(w)
	if !ok {
		return
	}

	current, err := m.Current()
	if err != nil {
		h.respondDeviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceResponse(current))
}

// SelectDevice handles POST /devices/select requests, selecting an output
// device by list index or by ID.
func (h *Handlers) SelectDevice(w http.ResponseWriter, r *http.Request) {
	m, ok := h.deviceManager(w)
	if !ok {
		return
	}

	var req SelectDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if req.Index == nil && req.ID == "" {
		writeError(w, http.StatusBadRequest, "index or id is required", "VALIDATION_ERROR")
		return
	}

	var (
		selected device.Info
		err      error
	)
	if req.Index != nil {
		selected, err = m.SelectByIndex(*req.Index)
	} else {
		selected, err = m.SelectByID(req.ID)
	}
	if err != nil {
		h.respondDeviceError(w, err)
		return
	}

	h.logger.Info("output device selected",
		slog.String("device_id", selected.ID),
		slog.Int("index", selected.Index),
	)
	writeJSON(w, http.StatusOK, toDeviceResponse(selected))
}

// DefaultDevice handles POST /devices/default requests, reverting to the
// system default output device.
func (h *Handlers) DefaultDevice(w http.ResponseWriter, r *http.Request) {
	m, ok := h.deviceManager(w)
	if !ok {
		return
	}

	selected, err := m.SelectDefault()
	if err != nil {
		h.respondDeviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceResponse(selected))
}

// deviceManager returns the device manager, writing a 503 when audio
// devices are disabled.
func (h *Handlers) deviceManager(w http.ResponseWriter) (*device.Manager, bool) {
	if h.devices == nil {
		writeError(w, http.StatusServiceUnavailable, "audio devices are not enabled", "DEVICES_DISABLED")
		return nil, false
	}
	return h.devices, true
}

// respondDeviceError maps device errors onto HTTP responses.
func (h *Handlers) respondDeviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "DEVICE_NOT_FOUND")
	case errors.Is(err, device.ErrNoDevices):
		writeError(w, http.StatusNotFound, "no output devices available", "NO_DEVICES")
	default:
		h.logger.Error("device operation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusServiceUnavailable, "audio device host unavailable", "DEVICE_UNAVAILABLE")
	}
}

// toDeviceResponse converts a device into its HTTP representation.
func toDeviceResponse(d device.Info) DeviceResponse {
	return DeviceResponse{
		Index:             d.Index,
		ID:                d.ID,
		Name:              d.Name,
		IsDefault:         d.IsDefault,
		MaxOutputChannels: d.MaxOutputChannels,
		DefaultSampleRate: d.DefaultSampleRate,
	}
}
