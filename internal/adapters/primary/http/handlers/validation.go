package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-promotion-service/internal/adapters/primary/http/dto"
)

// ValidateRecord is the CI check: it answers whether the candidate record
// may replace the previous one. Rejections are reported with 422.
func (h *Handler) ValidateRecord(c *gin.Context) {
	var req dto.ValidateRequest
	if err := bindRecordJSON(c, &req); err != nil {
		if status := statusForBind(err); status == http.StatusUnprocessableEntity {
			c.JSON(status, dto.DecisionResponse{Reason: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision := h.validationSvc.Validate(req.Candidate.ToDomain(), req.Previous.ToDomain())
	if !decision.Accepted {
		log.WithFields(log.Fields{
			"model_env":  req.Candidate.ModelEnv,
			"model_name": req.Candidate.ModelName,
			"reason":     decision.Reason,
		}).Info("record rejected")
		c.JSON(http.StatusUnprocessableEntity, dto.ToDecisionResponse(decision))
		return
	}

	c.JSON(http.StatusOK, dto.ToDecisionResponse(decision))
}
