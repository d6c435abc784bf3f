package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"vehicle_parking/internal/api/middleware"
	"vehicle_parking/internal/domain"
	"vehicle_parking/internal/repository"
	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(rs *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: rs}
}

// POST /user/book/:lot_id
func (h *ReservationHandler) Book(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("lot_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	userID, ok := middleware.CallerUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID missing for booking"})
		return
	}

	reservation, err := h.reservationService.BookSpot(c.Request.Context(), lotID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNoAvailableSpot) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No spots available in this lot!"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not book spot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("Spot %d booked successfully!", reservation.SpotID),
		"reservation_id": reservation.ID,
		"spot_id":        reservation.SpotID,
	})
}

// POST /user/release/:reservation_id
func (h *ReservationHandler) Release(c *gin.Context) {
	reservationID, err := strconv.Atoi(c.Param("reservation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	userID, ok := middleware.CallerUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID missing for release"})
		return
	}

	reservation, err := h.reservationService.ReleaseSpot(c.Request.Context(), reservationID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		case errors.Is(err, service.ErrNotReservationOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized release!"})
		case errors.Is(err, service.ErrAlreadyReleased):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not release spot"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Spot %d released. Cost: %.2f", reservation.SpotID, reservation.Cost),
		"cost":    reservation.Cost,
	})
}

// GET /user/reservations
func (h *ReservationHandler) Active(c *gin.Context) {
	userID, ok := middleware.CallerUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID missing for reservations"})
		return
	}
	h.respondWithList(c, userID, true)
}

// GET /user/history
func (h *ReservationHandler) History(c *gin.Context) {
	userID, ok := middleware.CallerUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID missing for history"})
		return
	}
	h.respondWithList(c, userID, false)
}

// GET /user/dashboard
func (h *ReservationHandler) Dashboard(c *gin.Context) {
	userID, ok := middleware.CallerUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID missing for dashboard"})
		return
	}

	dash, err := h.reservationService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build dashboard"})
		return
	}
	c.JSON(http.StatusOK, dash)
}

// GET /api/users/:user_id/reservations
//
// Admins may inspect anyone; other callers only themselves. Rejection happens
// after the coarse gate, so a valid but foreign credential still gets 403.
func (h *ReservationHandler) UserReservations(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	callerID, hasID := middleware.CallerUserID(c)
	if middleware.CallerRole(c) != domain.RoleAdmin && (!hasID || callerID != targetID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return
	}
	h.respondWithList(c, targetID, false)
}

func (h *ReservationHandler) respondWithList(c *gin.Context, userID int, activeOnly bool) {
	var (
		details []domain.ReservationDetail
		err     error
	)
	if activeOnly {
		details, err = h.reservationService.ActiveReservations(c.Request.Context(), userID)
	} else {
		details, err = h.reservationService.History(c.Request.Context(), userID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list reservations"})
		return
	}
	if details == nil {
		details = []domain.ReservationDetail{}
	}
	c.JSON(http.StatusOK, details)
}
