package handler

import (
	"errors"
	"net/http"
	"strconv"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type LotHandler struct {
	lotService *service.LotService
}

func NewLotHandler(ls *service.LotService) *LotHandler {
	return &LotHandler{lotService: ls}
}

// GET /api/lots and GET /admin/lots
func (h *LotHandler) ListLots(c *gin.Context) {
	summaries, err := h.lotService.ListLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list parking lots"})
		return
	}
	if summaries == nil {
		summaries = []domain.LotSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

// GET /api/lots/:id
func (h *LotHandler) GetLotDetail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	detail, err := h.lotService.LotDetail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load parking lot"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// POST /admin/lots
func (h *LotHandler) CreateLot(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and max_spots are required"})
		return
	}

	lot, err := h.lotService.CreateLot(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrInvalidLotSpec) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create parking lot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parking lot created successfully!", "lot_id": lot.ID})
}

// PUT /admin/lots/:id
func (h *LotHandler) UpdateLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and max_spots are required"})
		return
	}

	lot, err := h.lotService.UpdateLot(c.Request.Context(), id, dto)
	if err != nil {
		var capErr *service.InsufficientRemovableSpotsError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		case errors.Is(err, service.ErrInvalidLotSpec):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.As(err, &capErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": capErr.Error()})
		case errors.Is(err, repository.ErrConflict):
			c.JSON(http.StatusBadRequest, gin.H{"error": "lot was modified concurrently, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update parking lot"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parking lot updated!", "lot_id": lot.ID})
}

// DELETE /admin/lots/:id
func (h *LotHandler) DeleteLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	if err := h.lotService.DeleteLot(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
		case errors.Is(err, service.ErrLotInUse):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrConflict):
			c.JSON(http.StatusBadRequest, gin.H{"error": "lot was modified concurrently, please retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete parking lot"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parking lot deleted successfully!"})
}

// GET /admin/dashboard
func (h *LotHandler) AdminDashboard(c *gin.Context) {
	dash, err := h.lotService.AdminDashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build dashboard"})
		return
	}
	c.JSON(http.StatusOK, dash)
}
