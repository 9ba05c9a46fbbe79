package handlers

import (
	"model-promotion-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	validationSvc *services.ValidationService
	promotionSvc  *services.PromotionService
	revisionSvc   *services.RevisionService
}

func New(
	validationSvc *services.ValidationService,
	promotionSvc *services.PromotionService,
	revisionSvc *services.RevisionService,
) *Handler {
	return &Handler{
		validationSvc: validationSvc,
		promotionSvc:  promotionSvc,
		revisionSvc:   revisionSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// CI checks
	r.POST("/validations", h.ValidateRecord)

	// Deployment
	r.POST("/promotions", h.PromoteRecord)

	// Revision history
	r.GET("/environments/:env/models/:model/revisions", h.ListRevisions)
	r.GET("/environments/:env/models/:model/revisions/current", h.GetCurrentRevision)
	r.GET("/environments/:env/models/:model/revisions/:revision", h.GetRevision)
}
