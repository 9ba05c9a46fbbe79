package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"model-promotion-service/internal/adapters/primary/http/dto"
	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

func getEnvironment(c *gin.Context) (domain.Environment, bool) {
	env, err := domain.ParseEnvironment(c.Param("env"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return env, true
}

func (h *Handler) ListRevisions(c *gin.Context) {
	env, ok := getEnvironment(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	filter := ports.RevisionFilter{
		Environment: env,
		ModelName:   c.Param("model"),
		Limit:       limit,
		Offset:      offset,
	}.Paged()

	revisions, total, err := h.revisionSvc.History(c.Request.Context(), filter)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	items := make([]dto.RevisionResponse, 0, len(revisions))
	for _, rev := range revisions {
		items = append(items, dto.ToRevisionResponse(rev))
	}

	c.JSON(http.StatusOK, dto.ListRevisionsResponse{
		Items:      items,
		Total:      total,
		PageSize:   filter.Limit,
		NextOffset: filter.Offset + len(items),
	})
}

func (h *Handler) GetCurrentRevision(c *gin.Context) {
	env, ok := getEnvironment(c)
	if !ok {
		return
	}

	rev, err := h.revisionSvc.Current(c.Request.Context(), env, c.Param("model"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRevisionResponse(rev))
}

func (h *Handler) GetRevision(c *gin.Context) {
	env, ok := getEnvironment(c)
	if !ok {
		return
	}

	revision, err := strconv.Atoi(c.Param("revision"))
	if err != nil || revision <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid revision"})
		return
	}

	rev, err := h.revisionSvc.Get(c.Request.Context(), env, c.Param("model"), revision)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRevisionResponse(rev))
}
