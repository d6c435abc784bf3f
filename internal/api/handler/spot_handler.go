package handler

import (
	"errors"
	"net/http"
	"strconv"
	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type SpotHandler struct {
	lotService *service.LotService
}

func NewSpotHandler(ls *service.LotService) *SpotHandler {
	return &SpotHandler{lotService: ls}
}

// GET /api/spots/:id
//
// Passes the coarse gate only; the admin check happens here, so an
// authenticated non-admin caller is still rejected.
func (h *SpotHandler) GetSpot(c *gin.Context) {
	if middleware.CallerRole(c) != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	spot, err := h.lotService.GetSpot(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking spot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load parking spot"})
		return
	}
	c.JSON(http.StatusOK, spot)
}
