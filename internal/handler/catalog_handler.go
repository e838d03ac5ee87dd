package handler

import (
	"errors"
	"net/http"

	"seragon/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CatalogHandler struct {
	repo *repository.CatalogRepository
}

func NewCatalogHandler(repo *repository.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	list, err := h.repo.ListActiveServices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetService(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	svc, err := h.repo.GetServiceByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !svc.IsActive) {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	list, err := h.repo.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
