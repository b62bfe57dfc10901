package handler

import (
	"errors"
	"net/http"
	"time"

	"shopsearch-be/internal/apperror"
	"shopsearch-be/internal/logger"
	"shopsearch-be/internal/product"
	"shopsearch-be/internal/search"
	"shopsearch-be/internal/utils"

	"go.uber.org/zap"
)

// Handler exposes the search service over HTTP.
type Handler struct {
	SearchSvc search.Service
	now       func() time.Time
}

func NewHandler(searchSvc search.Service) *Handler {
	return &Handler{SearchSvc: searchSvc, now: time.Now}
}

type searchResponse struct {
	Success bool              `json:"success"`
	Query   string            `json:"query"`
	Scope   string            `json:"scope"`
	Results *search.ResultSet `json:"results"`
}

type widgetResponse struct {
	Success bool   `json:"success"`
	Query   string `json:"query"`
	*search.WidgetResult
}

type productResponse struct {
	Success bool             `json:"success"`
	Product *product.Product `json:"product"`
}

// Search handles POST /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.SearchSvc.Search(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "Failed to perform search")
		return
	}

	utils.WriteJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Query:   res.Query,
		Scope:   res.Scope,
		Results: res,
	})
}

// WidgetSearch handles POST /api/widget/search for storefronts.
func (h *Handler) WidgetSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.SearchSvc.WidgetSearch(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "Failed to perform search")
		return
	}

	utils.WriteJSON(w, http.StatusOK, widgetResponse{
		Success:      true,
		Query:        req.Query,
		WidgetResult: res,
	})
}

// ProductByID handles GET /api/products/{id}?scope=global|shop.
func (h *Handler) ProductByID(w http.ResponseWriter, r *http.Request) {
	h.productDetails(w, r, search.DetailRequest{
		ID:    r.PathValue("id"),
		Scope: r.URL.Query().Get("scope"),
	})
}

// ProductDetails handles POST /api/products/details.
func (h *Handler) ProductDetails(w http.ResponseWriter, r *http.Request) {
	var req search.DetailRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.productDetails(w, r, req)
}

func (h *Handler) productDetails(w http.ResponseWriter, r *http.Request, req search.DetailRequest) {
	p, err := h.SearchSvc.GetProductDetails(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "Failed to get product details")
		return
	}
	utils.WriteJSON(w, http.StatusOK, productResponse{Success: true, Product: p})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// writeError answers with the status for err. Caller mistakes get their
// message back; upstream failures only a generic one.
func writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := apperror.HTTPStatus(err)
	log := logger.FromCtx(r.Context())

	if status >= http.StatusInternalServerError {
		log.Error(action, zap.Error(err))
		utils.WriteJSON(w, status, map[string]string{
			"error":   action,
			"message": http.StatusText(status),
		})
		return
	}

	log.Warn("request rejected", zap.Int("status", status), zap.Error(err))
	utils.WriteJSONError(w, clientMessage(err), status)
}

func clientMessage(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		if errors.Is(appErr.Kind, apperror.ErrValidation) && appErr.Body != "" {
			return appErr.Body
		}
		return appErr.Kind.Error()
	}
	return err.Error()
}
