// Package v1 provides the block store REST API handlers.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lumina-study/block-store/internal/api/common"
	"github.com/lumina-study/block-store/internal/lifecycle"
	"github.com/lumina-study/block-store/internal/lumina"
	"github.com/lumina-study/block-store/internal/service"
	"github.com/lumina-study/block-store/internal/sourcekey"
	"github.com/lumina-study/block-store/internal/versions"
)

// maxAddRequestSize bounds the body of an add request
const maxAddRequestSize = 64 << 10

// AddSourceRequest is the body of POST /api/v1/sources
type AddSourceRequest struct {
	Provider     string `json:"provider"`
	Organization string `json:"organization"`
	Repository   string `json:"repository"`
	// Token is optional; configured credentials are used when empty
	Token string `json:"token,omitempty"`
}

// SourceListResponse is the body of GET /api/v1/sources
type SourceListResponse struct {
	Sources []*lumina.Source `json:"sources"`
	Count   int              `json:"count"`
}

// BlockListResponse is the body of the block listing endpoints
type BlockListResponse struct {
	Blocks []lumina.Block `json:"blocks"`
	Count  int            `json:"count"`
}

// AcceptedResponse is returned when an add continues in the background
type AcceptedResponse struct {
	Key    string `json:"key"`
	Status string `json:"status"`
}

// Routes handles HTTP requests for the v1 API
type Routes struct {
	service service.BlockService
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.BlockService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates and configures the HTTP router for the v1 API
func Router(svc service.BlockService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Route("/sources", func(r chi.Router) {
		r.Get("/", routes.listSources)
		r.Post("/", routes.addSource)
		r.Delete("/", routes.clearSources)
		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", routes.getSource)
			r.Delete("/", routes.removeSource)
			r.Get("/blocks", routes.listSourceBlocks)
		})
	})

	r.Get("/blocks", routes.listBlocks)
	r.Get("/blocks/{id}", routes.getBlock)

	r.Get("/status", routes.getStatus)
	r.Delete("/status/error", routes.clearError)

	return r
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.BlockService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

func readinessHandler(svc service.BlockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "Service not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// listSources handles GET /api/v1/sources
func (routes *Routes) listSources(w http.ResponseWriter, r *http.Request) {
	var opts []service.Option[service.ListSourcesOptions]
	if provider := r.URL.Query().Get("provider"); provider != "" {
		opts = append(opts, service.WithProvider(provider))
	}

	sources, err := routes.service.ListSources(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	common.WriteJSONResponse(w, SourceListResponse{Sources: sources, Count: len(sources)}, http.StatusOK)
}

// addSource handles POST /api/v1/sources. With ?wait=false the add runs in
// the background and 202 is returned; progress is visible at /status.
func (routes *Routes) addSource(w http.ResponseWriter, r *http.Request) {
	var body AddSourceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAddRequestSize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validateAddRequest(&body); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := lifecycle.AddRequest{
		Provider:     lumina.Provider(body.Provider),
		Organization: body.Organization,
		Repository:   body.Repository,
		Token:        body.Token,
	}

	wait := true
	if v := r.URL.Query().Get("wait"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			common.WriteErrorResponse(w, "Invalid wait parameter: must be a boolean", http.StatusBadRequest)
			return
		}
		wait = parsed
	}

	if !wait {
		// the outcome is recorded in the store; the channel is buffered
		_ = routes.service.AddSourceAsync(r.Context(), req)
		common.WriteJSONResponse(w, AcceptedResponse{
			Key:    sourcekey.Encode(req.Triple()),
			Status: "pending",
		}, http.StatusAccepted)
		return
	}

	src, err := routes.service.AddSource(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/sources/"+sourcekey.Encode(src.Triple))
	common.WriteJSONResponse(w, src, http.StatusCreated)
}

func validateAddRequest(body *AddSourceRequest) error {
	switch {
	case body.Provider == "":
		return errors.New("provider is required")
	case body.Organization == "":
		return errors.New("organization is required")
	case body.Repository == "":
		return errors.New("repository is required")
	}
	if strings.Contains(body.Organization, sourcekey.Separator) || strings.Contains(body.Repository, sourcekey.Separator) {
		return errors.New("organization and repository must not contain " + strconv.Quote(sourcekey.Separator))
	}
	return nil
}

// clearSources handles DELETE /api/v1/sources
func (routes *Routes) clearSources(w http.ResponseWriter, r *http.Request) {
	if err := routes.service.ClearSources(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getSource handles GET /api/v1/sources/{key}
func (routes *Routes) getSource(w http.ResponseWriter, r *http.Request) {
	key, err := common.GetAndValidateURLParam(r, "key")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	src, err := routes.service.GetSource(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, src, http.StatusOK)
}

// removeSource handles DELETE /api/v1/sources/{key}
func (routes *Routes) removeSource(w http.ResponseWriter, r *http.Request) {
	key, err := common.GetAndValidateURLParam(r, "key")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := routes.service.RemoveSource(r.Context(), key); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listSourceBlocks handles GET /api/v1/sources/{key}/blocks
func (routes *Routes) listSourceBlocks(w http.ResponseWriter, r *http.Request) {
	key, err := common.GetAndValidateURLParam(r, "key")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	routes.writeBlocks(w, r, service.WithSourceKey(key))
}

// listBlocks handles GET /api/v1/blocks
func (routes *Routes) listBlocks(w http.ResponseWriter, r *http.Request) {
	routes.writeBlocks(w, r)
}

func (routes *Routes) writeBlocks(w http.ResponseWriter, r *http.Request, opts ...service.Option[service.ListBlocksOptions]) {
	blocks, err := routes.service.ListBlocks(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, BlockListResponse{Blocks: blocks, Count: len(blocks)}, http.StatusOK)
}

// getBlock handles GET /api/v1/blocks/{id}
func (routes *Routes) getBlock(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	block, err := routes.service.GetBlock(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, block, http.StatusOK)
}

// getStatus handles GET /api/v1/status
func (routes *Routes) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := routes.service.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, status, http.StatusOK)
}

// clearError handles DELETE /api/v1/status/error
func (routes *Routes) clearError(w http.ResponseWriter, r *http.Request) {
	if err := routes.service.ClearError(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps a service error to a response
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		unsupported *lumina.UnsupportedProviderError
		addErr      *lifecycle.AddError
	)

	switch {
	case errors.Is(err, sourcekey.ErrMalformedKey),
		errors.Is(err, sourcekey.ErrUnknownProvider),
		errors.As(err, &unsupported):
		common.WriteErrorResponse(w, messageOf(err), http.StatusBadRequest)
	case errors.Is(err, service.ErrSourceNotFound),
		errors.Is(err, service.ErrBlockNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &addErr):
		common.WriteJSONResponse(w, common.ErrorResponse{
			Error:  addErr.Message,
			Status: addErr.HTTPStatus,
		}, upstreamStatus(addErr.HTTPStatus))
	default:
		slog.Error("Request failed", "error", err)
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
	}
}

// messageOf prefers the recorded add message over the wrapped cause
func messageOf(err error) string {
	var addErr *lifecycle.AddError
	if errors.As(err, &addErr) {
		return addErr.Message
	}
	return err.Error()
}

// upstreamStatus passes through the provider statuses a client can act on
func upstreamStatus(status int) int {
	switch status {
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
		return status
	default:
		return http.StatusBadGateway
	}
}
