package handler

import (
	"net/http"

	"github.com/mattosconsultor/humano-saude/internal/leads/service"
	"github.com/mattosconsultor/humano-saude/internal/leads/transport"
	"github.com/mattosconsultor/humano-saude/platform/httpkit"
	"github.com/mattosconsultor/humano-saude/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	msgLeadCreated  = "lead created"
	msgLeadExists   = "lead already exists for this contact"
	msgLeadArchived = "lead archived"
	msgStatsPending = "no statistics available yet"
	msgLeadNotFound = "lead not found"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.ChangeStatus)
	rg.POST("/:id/archive", h.Archive)
	rg.GET("/stats/dashboard", h.Dashboard)
	rg.GET("/stats/pipeline", h.PipelineFunnel)
	rg.GET("/stats/by-provider", h.ByProvider)
}

// Create ingests one extracted document. A duplicate contact key responds
// 200 with the pre-existing lead instead of 201, so ingestion pipelines can
// re-post the same document safely.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateFromExtraction(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	if result.Duplicate {
		httpkit.OK(c, transport.CreateLeadResponse{
			Message:   msgLeadExists,
			Duplicate: true,
			Lead:      transport.ToLeadResponse(result.Lead),
		})
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CreateLeadResponse{
		Message: msgLeadCreated,
		Lead:    transport.ToLeadResponse(result.Lead),
	})
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.LeadResponse, 0, len(result.Leads))
	for _, lead := range result.Leads {
		items = append(items, transport.ToLeadResponse(lead))
	}

	httpkit.OK(c, transport.ListLeadsResponse{
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
		Items:  items,
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.ChangeStatus(c.Request.Context(), id, req.Status, req.Note)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	archived, err := h.svc.Archive(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if !archived {
		httpkit.Error(c, http.StatusNotFound, msgLeadNotFound, nil)
		return
	}

	httpkit.OK(c, gin.H{"message": msgLeadArchived})
}

// Dashboard responds 200 even when the aggregate views are still empty;
// the frontend treats a zeroed dashboard as "no data yet", not a failure.
func (h *Handler) Dashboard(c *gin.Context) {
	stats, ok, err := h.svc.Dashboard(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	if !ok {
		httpkit.OK(c, gin.H{
			"message": msgStatsPending,
			"stats":   transport.ToDashboardStatsResponse(stats),
		})
		return
	}

	httpkit.OK(c, transport.ToDashboardStatsResponse(stats))
}

func (h *Handler) PipelineFunnel(c *gin.Context) {
	rows, err := h.svc.Funnel(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToFunnelRowResponses(rows))
}

func (h *Handler) ByProvider(c *gin.Context) {
	rows, err := h.svc.ByProvider(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToProviderCountResponses(rows))
}
