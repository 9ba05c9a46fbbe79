package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-promotion-service/internal/adapters/primary/http/dto"
	"model-promotion-service/internal/core/domain"
	"model-promotion-service/internal/core/services"
)

func (h *Handler) PromoteRecord(c *gin.Context) {
	var req dto.PromoteRequest
	if err := bindRecordJSON(c, &req); err != nil {
		c.JSON(statusForBind(err), gin.H{"error": err.Error()})
		return
	}

	result, err := h.promotionSvc.Promote(c.Request.Context(), services.PromoteRequest{
		Config:    req.Record.ToDomain(),
		CommitSHA: req.CommitSHA,
		Author:    req.Author,
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"model_env":  req.Record.ModelEnv,
			"model_name": req.Record.ModelName,
		}).Error("promotion failed")
		c.JSON(statusFor(err), dto.ToPromotionResponse(result, err))
		return
	}

	status := http.StatusOK
	if result.Status == domain.PromotionPromoted {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ToPromotionResponse(result, nil))
}
