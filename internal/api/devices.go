package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/petkit-bridge/internal/device"
)

// deviceSummary is the list-view representation of a device.
type deviceSummary struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	State    any       `json:"state"`
	LastSeen time.Time `json:"last_seen"`
}

// deviceDetail adds the full attribute values and raw cloud payloads.
type deviceDetail struct {
	deviceSummary
	Attributes map[string]any `json:"attributes"`
	Data       map[string]any `json:"data"`
	Detail     map[string]any `json:"detail"`
}

func summarize(d *device.Device) deviceSummary {
	return deviceSummary{
		ID:       d.ID(),
		Kind:     string(d.Kind()),
		Type:     d.TypeTag(),
		Name:     d.Name(),
		State:    d.State(),
		LastSeen: d.LastSeen(),
	}
}

func detail(d *device.Device) deviceDetail {
	values := make(map[string]any)
	for _, attr := range d.Attributes() {
		if attr.Value == nil {
			continue
		}
		values[attr.Key] = attr.Value()
	}
	return deviceDetail{
		deviceSummary: summarize(d),
		Attributes:    values,
		Data:          d.Data(),
		Detail:        d.Detail(),
	}
}

// handleHealth returns bridge liveness and the registry size.
//
// GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"devices": s.registry.Count(),
	})
}

// handleListDevices returns all known devices.
//
// GET /api/v1/devices
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.Snapshot()
	summaries := make([]deviceSummary, 0, len(devices))
	for _, d := range devices {
		summaries = append(summaries, summarize(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": summaries,
		"count":   len(summaries),
	})
}

// handleGetDevice returns one device with attribute values and raw
// cloud payloads.
//
// GET /api/v1/devices/{id}
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, detail(d))
}

// feedRequest is the body for manual feeds. A zero or missing amount
// uses the account's configured portion.
type feedRequest struct {
	Amount int `json:"amount"`
}

// handleFeed dispenses food from a feeder.
//
// POST /api/v1/devices/{id}/feed {"amount": 10}
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	d, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "device not found")
		return
	}

	var req feedRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Amount < 0 {
		writeBadRequest(w, "amount must not be negative")
		return
	}

	if err := d.FeedNow(r.Context(), req.Amount); err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// switchRequest is the body for on/off controls.
type switchRequest struct {
	On bool `json:"on"`
}

// handlePower switches a litter box on or off.
//
// POST /api/v1/devices/{id}/power {"on": true}
func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	s.handleSwitch(w, r, (*device.Device).SetPower)
}

// handleLock engages or releases a litter box's manual lock.
//
// POST /api/v1/devices/{id}/lock {"on": true}
func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	s.handleSwitch(w, r, (*device.Device).SetManualLock)
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request, control func(*device.Device, context.Context, bool) error) {
	d, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "device not found")
		return
	}

	var req switchRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := control(d, r.Context(), req.On); err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// actionRequest is the body for cleaning cycle controls.
type actionRequest struct {
	Action string `json:"action"`
}

// handleAction starts or adjusts a litter box cleaning cycle.
//
// POST /api/v1/devices/{id}/action {"action": "cleanup"}
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	d, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "device not found")
		return
	}

	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Action == "" {
		writeBadRequest(w, "action is required")
		return
	}

	if err := d.SelectAction(r.Context(), req.Action); err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// decodeBody parses a JSON request body. An empty body decodes to the
// zero value so optional bodies stay optional.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeControlError maps device control failures onto HTTP statuses.
func writeControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrNotSupported), errors.Is(err, device.ErrUnknownAction):
		writeBadRequest(w, err.Error())
	case errors.Is(err, device.ErrControlFailed):
		writeUpstreamError(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
