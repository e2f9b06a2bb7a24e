package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spotsync/backend/api/transport"
	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/pkg/httpcontext"
	"github.com/spotsync/backend/repository"
	"github.com/spotsync/backend/usecase/ingest"
	"github.com/spotsync/backend/usecase/reconcile"
	searchUC "github.com/spotsync/backend/usecase/search"
)

// CollectionRunner triggers one full collection sweep across every feed.
type CollectionRunner interface {
	RunAll(ctx context.Context) error
}

// AdminHandler exposes operator endpoints: full reindex, cache eviction,
// manual collection and facility tombstoning. These routes are expected to
// sit behind network level access control.
type AdminHandler struct {
	baseHandler
	store     repository.FacilityRepository
	projector *reconcile.Projector
	cached    *searchUC.CachedEngine
	collector *ingest.Collector
	runner    CollectionRunner
}

func NewAdminHandler(store repository.FacilityRepository, projector *reconcile.Projector,
	cached *searchUC.CachedEngine, collector *ingest.Collector, runner CollectionRunner,
	adapter *httpcontext.Adapter, logger *zap.Logger) *AdminHandler {

	return &AdminHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
		projector:   projector,
		cached:      cached,
		collector:   collector,
		runner:      runner,
	}
}

// @Summary Rebuild the search index from the canonical store
// @Tags admin
// @Router /api/v1/admin/reindex [post]
func (h *AdminHandler) Reindex(ctx *fasthttp.RequestCtx) {
	// Reindexing streams the whole store; it runs outside the request
	// deadline on purpose.
	stdCtx := context.Background()

	indexed, err := h.projector.ReindexAll(stdCtx, h.store)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{"indexed": indexed})
}

// @Summary Evict all cached search results
// @Tags admin
// @Router /api/v1/admin/cache [delete]
func (h *AdminHandler) EvictCache(ctx *fasthttp.RequestCtx) {
	if h.cached == nil {
		h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{"evicted": 0})
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	evicted, err := h.cached.Evict(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{"evicted": evicted})
}

// @Summary Run a full collection sweep across every feed
// @Tags admin
// @Router /api/v1/admin/collect [post]
func (h *AdminHandler) Collect(ctx *fasthttp.RequestCtx) {
	if h.runner == nil {
		h.respondError(ctx, domain.NewError(domain.ErrCodeConflict, "collector is disabled"))
		return
	}

	// A sweep can take minutes; run it detached and acknowledge.
	go func() {
		if err := h.runner.RunAll(context.Background()); err != nil {
			h.logger.Warn("manual collection failed", zap.Error(err))
		}
	}()
	h.respondSuccess(ctx, http.StatusAccepted, map[string]interface{}{"status": "collection started"})
}

// @Summary Tombstone a facility
// @Tags admin
// @Router /api/v1/admin/facilities [delete]
func (h *AdminHandler) DeleteFacility(ctx *fasthttp.RequestCtx) {
	var req transport.DeleteRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.collector.EmitDelete(stdCtx, req.ExternalID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, map[string]interface{}{"external_id": req.ExternalID})
}
