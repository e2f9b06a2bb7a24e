package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spotsync/backend/api/transport"
	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/pkg/httpcontext"
	searchUC "github.com/spotsync/backend/usecase/search"
)

type FacilityHandler struct {
	baseHandler
	svc *searchUC.Service
}

func NewFacilityHandler(svc *searchUC.Service, adapter *httpcontext.Adapter, logger *zap.Logger) *FacilityHandler {
	return &FacilityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		svc:         svc,
	}
}

// @Summary Search facilities near a point
// @Tags facilities
// @Router /api/v1/facilities/search [get]
func (h *FacilityHandler) Search(ctx *fasthttp.RequestCtx) {
	req, err := h.parseSearch(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	results, err := h.svc.Search(stdCtx, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondJSON(ctx, http.StatusOK,
		transport.NewSearchPage(results, len(results), req.Page, req.Size, req.RadiusKm))
}

// @Summary Get one facility by external id
// @Tags facilities
// @Router /api/v1/facilities/{externalId} [get]
func (h *FacilityHandler) Get(ctx *fasthttp.RequestCtx) {
	externalID, _ := ctx.UserValue("externalId").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	facility, err := h.svc.GetByExternalID(stdCtx, externalID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, facility)
}

// @Summary Facility counts by kind
// @Tags facilities
// @Router /api/v1/facilities/stats [get]
func (h *FacilityHandler) Stats(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.svc.Stats(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, stats)
}

func (h *FacilityHandler) parseSearch(ctx *fasthttp.RequestCtx) (searchUC.Request, error) {
	args := ctx.QueryArgs()

	req := searchUC.Request{
		RadiusKm:      parseFloat(string(args.Peek("radius"))),
		Kind:          parseKind(string(args.Peek("type"))),
		AvailableOnly: parseBool(string(args.Peek("available"))),
		FreeOnly:      parseBool(string(args.Peek("free"))),
		Page:          parseInt(string(args.Peek("page")), 0),
		Size:          parseInt(string(args.Peek("size")), 0),
	}

	if raw := string(args.Peek("lat")); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, domain.NewError(domain.ErrCodeInvalid, "malformed latitude")
		}
		req.Lat = &lat
	}
	if raw := string(args.Peek("lng")); raw != "" {
		lng, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, domain.NewError(domain.ErrCodeInvalid, "malformed longitude")
		}
		req.Lng = &lng
	}
	return req, nil
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseKind(raw string) domain.FacilityKind {
	switch raw {
	case "parking", "PARKING":
		return domain.KindParking
	case "charging", "CHARGING":
		return domain.KindCharging
	default:
		return ""
	}
}
