// Package server exposes the recommendation and projection engine over a
// small JSON HTTP API. Responses are plain data; rendering is the caller's
// responsibility.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/internal/field"
	"github.com/uldisg/cropwise/internal/planner"
	"github.com/uldisg/cropwise/internal/pricing"
	"github.com/uldisg/cropwise/internal/projection"
	"github.com/uldisg/cropwise/internal/storage"
	"go.uber.org/zap"
)

// Deps bundles the collaborators the handler needs.
type Deps struct {
	Catalog   *catalog.Catalog
	Resolver  *pricing.Resolver
	Ranker    *planner.Ranker
	Projector *projection.Projector
	Analyzer  *projection.Analyzer
	Store     *storage.Store
	Scenarios []projection.Scenario
	Horizon   int
	Version   string
}

type handler struct {
	logger *zap.Logger
	deps   Deps
}

// NewHandler constructs the HTTP handler that serves the planning API.
func NewHandler(logger *zap.Logger, deps Deps) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(deps.Version) == "" {
		deps.Version = "dev"
	}

	h := &handler{logger: logger, deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/recommend", h.handleRecommend)
	mux.HandleFunc("/api/project", h.handleProject)
	mux.HandleFunc("/api/scenarios", h.handleScenarios)
	mux.HandleFunc("/api/fields", h.handleFields)
	mux.HandleFunc("/api/sowings", h.handleSowings)
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var unknownCrop *catalog.UnknownCropError
	var invalidField *field.InvalidFieldStateError
	var badScenario *projection.ScenarioConfigError
	switch {
	case errors.Is(err, storage.ErrFieldNotFound):
		status = http.StatusNotFound
	case errors.As(err, &unknownCrop), errors.As(err, &badScenario):
		status = http.StatusBadRequest
	case errors.As(err, &invalidField):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("op", "server"), zap.Error(err))
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// userID extracts the opaque authenticated-user identifier supplied by the
// identity provider in front of this service.
func userID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		return "", fmt.Errorf("missing X-User-ID header")
	}
	return id, nil
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.deps.Version})
}

type recommendRequest struct {
	FieldID    string   `json:"fieldId"`
	Candidates []string `json:"candidates,omitempty"`
}

type recommendResponse struct {
	FieldID         string                   `json:"fieldId"`
	Recommendations []planner.Recommendation `json:"recommendations"`
	Skipped         map[string]string        `json:"skipped,omitempty"`
}

func (h *handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	owner, err := userID(r)
	if err != nil {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	f, history, err := h.loadField(owner, req.FieldID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.deps.Ranker.Rank(r.Context(), f, history, req.Candidates)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, recommendResponse{
		FieldID:         f.ID,
		Recommendations: result.Recommendations,
		Skipped:         result.Skipped,
	})
}

type projectRequest struct {
	FieldID      string `json:"fieldId"`
	CropCode     string `json:"cropCode"`
	HorizonYears int    `json:"horizonYears,omitempty"`
}

type projectResponse struct {
	FieldID string           `json:"fieldId"`
	Crop    string           `json:"crop"`
	Quote   pricing.Quote    `json:"quote"`
	Rows    []projection.Row `json:"rows"`
}

func (h *handler) handleProject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	owner, err := userID(r)
	if err != nil {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	f, _, err := h.loadField(owner, req.FieldID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	crop, quote, err := h.resolveCrop(r, req.CropCode)
	if err != nil {
		h.writeError(w, err)
		return
	}

	horizon := req.HorizonYears
	if horizon <= 0 {
		horizon = h.deps.Horizon
	}
	yield, _ := crop.YieldFor(f.Soil)
	rows, err := h.deps.Projector.Project(crop, f, horizon,
		projection.Flat(quote.PriceEurT), projection.Flat(yield))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, projectResponse{
		FieldID: f.ID,
		Crop:    crop.Code,
		Quote:   quote,
		Rows:    rows,
	})
}

type scenariosResponse struct {
	FieldID   string                      `json:"fieldId"`
	Crop      string                      `json:"crop"`
	Quote     pricing.Quote               `json:"quote"`
	Scenarios map[string][]projection.Row `json:"scenarios"`
}

func (h *handler) handleScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	owner, err := userID(r)
	if err != nil {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	f, _, err := h.loadField(owner, req.FieldID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	crop, quote, err := h.resolveCrop(r, req.CropCode)
	if err != nil {
		h.writeError(w, err)
		return
	}

	horizon := req.HorizonYears
	if horizon <= 0 {
		horizon = h.deps.Horizon
	}
	yield, _ := crop.YieldFor(f.Soil)
	scenarios, err := h.deps.Analyzer.Analyze(crop, f, horizon,
		projection.Flat(quote.PriceEurT), projection.Flat(yield), h.deps.Scenarios)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, scenariosResponse{
		FieldID:   f.ID,
		Crop:      crop.Code,
		Quote:     quote,
		Scenarios: scenarios,
	})
}

type createFieldRequest struct {
	Name      string   `json:"name"`
	AreaHa    float64  `json:"areaHa"`
	Soil      string   `json:"soil"`
	RentEurHa float64  `json:"rentEurHa,omitempty"`
	PH        *float64 `json:"ph,omitempty"`
}

func (h *handler) handleFields(w http.ResponseWriter, r *http.Request) {
	owner, err := userID(r)
	if err != nil {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	switch r.Method {
	case http.MethodGet:
		fields, err := h.deps.Store.ListFields(owner)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, fields)
	case http.MethodPost:
		var req createFieldRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
		created, err := h.deps.Store.CreateField(field.Field{
			OwnerID:   owner,
			Name:      req.Name,
			AreaHa:    req.AreaHa,
			Soil:      catalog.SoilType(req.Soil),
			RentEurHa: req.RentEurHa,
			PH:        req.PH,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusCreated, created)
	default:
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	}
}

type addSowingRequest struct {
	FieldID   string   `json:"fieldId"`
	CropCode  string   `json:"cropCode"`
	Year      int      `json:"year"`
	YieldTHa  *float64 `json:"yieldTHa,omitempty"`
	ProfitEur *float64 `json:"profitEur,omitempty"`
}

func (h *handler) handleSowings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	owner, err := userID(r)
	if err != nil {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	var req addSowingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if !h.deps.Catalog.Has(req.CropCode) {
		h.writeError(w, &catalog.UnknownCropError{Code: req.CropCode})
		return
	}
	created, err := h.deps.Store.AddSowingRecord(owner, field.SowingRecord{
		FieldID:   req.FieldID,
		CropCode:  req.CropCode,
		Year:      req.Year,
		YieldTHa:  req.YieldTHa,
		ProfitEur: req.ProfitEur,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *handler) loadField(owner, fieldID string) (field.Field, []field.SowingRecord, error) {
	if strings.TrimSpace(fieldID) == "" {
		return field.Field{}, nil, &field.InvalidFieldStateError{FieldID: fieldID, Reason: "field ID is required"}
	}
	f, err := h.deps.Store.GetField(fieldID, owner)
	if err != nil {
		return field.Field{}, nil, err
	}
	history, err := h.deps.Store.ListSowingHistory(f.ID)
	if err != nil {
		return field.Field{}, nil, err
	}
	return f, history, nil
}

func (h *handler) resolveCrop(r *http.Request, code string) (catalog.Crop, pricing.Quote, error) {
	crop, err := h.deps.Catalog.Get(code)
	if err != nil {
		return catalog.Crop{}, pricing.Quote{}, err
	}
	quote, err := h.deps.Resolver.Resolve(r.Context(), code)
	if err != nil {
		return catalog.Crop{}, pricing.Quote{}, err
	}
	return crop, quote, nil
}
