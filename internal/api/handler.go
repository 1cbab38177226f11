package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/ovn-options/internal/bridgemap"
	"github.com/eugenenazirov/ovn-options/internal/schema"
	"github.com/eugenenazirov/ovn-options/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires the option storage into HTTP handlers.
type Handler struct {
	storage storage.Storage
	logger  *zap.Logger

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithHandlerLogger sets the logger used to report configuration changes.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetOptions(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, optionsResponse{
		Options: h.storage.Definitions().All(),
	})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, newConfigResponse(h.storage.Current()))
}

func (h *Handler) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOverrides(w, r)
	if !ok {
		return
	}

	snap, changed, err := h.storage.Apply(req.Overrides)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	h.logger.Info("configuration updated",
		zap.Strings("changed", changed),
		zap.String("request_id", requestIDFromContext(r.Context())),
	)

	resp := newConfigResponse(snap)
	resp.Changed = changed
	resp.Message = "Configuration updated successfully"
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOverrides(w, r)
	if !ok {
		return
	}

	cfg, err := schema.Resolve(h.storage.Definitions(), req.Overrides)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		Values:  cfg,
		Changed: cfg.Changed(h.storage.Current().Config),
	})
}

func (h *Handler) handleBridgeMappings(w http.ResponseWriter, r *http.Request) {
	_ = r
	cfg := h.storage.Current().Config

	interfaces, err := bridgemap.Parse(cfg.String(schema.OptionInterfaceBridgeMappings))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid bridge mappings",
			fmt.Sprintf("%s: %v", schema.OptionInterfaceBridgeMappings, err))
		return
	}
	networks, err := bridgemap.Parse(cfg.String(schema.OptionOVNBridgeMappings))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid bridge mappings",
			fmt.Sprintf("%s: %v", schema.OptionOVNBridgeMappings, err))
		return
	}

	bridges := interfaces.Bridges()
	for _, br := range networks.Bridges() {
		if !slices.Contains(bridges, br) {
			bridges = append(bridges, br)
		}
	}

	writeJSON(w, http.StatusOK, bridgeMappingsResponse{
		InterfaceMappings: nonNilMappings(interfaces),
		OVNMappings:       nonNilMappings(networks),
		Bridges:           bridges,
		ExternalIDs:       networks.ExternalIDValue(),
		Unbound:           nonNilMappings(bridgemap.Unbound(interfaces, networks)),
	})
}

func (h *Handler) writeResolveError(w http.ResponseWriter, err error) {
	var unknown *schema.UnknownOptionError
	var invalid *schema.InvalidValueError

	switch {
	case errors.As(err, &unknown):
		suggestion := "Known options: " + strings.Join(h.storage.Definitions().Names(), ", ")
		writeError(w, http.StatusBadRequest, "Unknown option", err.Error(), suggestion)
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, "Invalid option value", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func decodeOverrides(w http.ResponseWriter, r *http.Request) (overridesRequest, bool) {
	var req overridesRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return overridesRequest{}, false
	}
	if req.Overrides == nil {
		req.Overrides = map[string]string{}
	}
	return req, true
}

func nonNilMappings(ms bridgemap.Mappings) bridgemap.Mappings {
	if ms == nil {
		return bridgemap.Mappings{}
	}
	return ms
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func newConfigResponse(snap storage.Snapshot) configResponse {
	return configResponse{
		Values:    snap.Config,
		Overrides: snap.Overrides,
		UpdatedAt: snap.UpdatedAt,
	}
}

type overridesRequest struct {
	Overrides map[string]string `json:"overrides"`
}

type optionsResponse struct {
	Options []schema.OptionDefinition `json:"options"`
}

type configResponse struct {
	Values    schema.ResolvedConfig `json:"values"`
	Overrides map[string]string     `json:"overrides"`
	UpdatedAt time.Time             `json:"updatedAt"`
	Changed   []string              `json:"changed,omitempty"`
	Message   string                `json:"message,omitempty"`
}

type resolveResponse struct {
	Values  schema.ResolvedConfig `json:"values"`
	Changed []string              `json:"changed"`
}

type bridgeMappingsResponse struct {
	InterfaceMappings bridgemap.Mappings `json:"interfaceMappings"`
	OVNMappings       bridgemap.Mappings `json:"ovnMappings"`
	Bridges           []string           `json:"bridges"`
	ExternalIDs       string             `json:"externalIds"`
	Unbound           bridgemap.Mappings `json:"unbound"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
