package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"cheffnex/internal/middleware"
	"cheffnex/internal/models"
	"cheffnex/internal/repository"
)

type CreateWaiterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"required"`
}

func GetWaiters(staff StaffStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/waiters"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		waiters, err := staff.List(ctx, restaurantID, models.RoleWaiter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": waiters})
	}
}

// CreateWaiter adds a waiter account, up to maxWaiters per restaurant.
func CreateWaiter(staff StaffStore, maxWaiters int) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/waiters"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		var req CreateWaiterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		count, err := staff.Count(ctx, restaurantID, models.RoleWaiter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count >= int64(maxWaiters) {
			respondWithError(c, http.StatusConflict, route, "waiter limit reached")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "password hashing failed")
			return
		}

		member := models.Staff{
			RestaurantID: restaurantID,
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: string(hash),
			FullName:     strings.TrimSpace(req.FullName),
			Role:         models.RoleWaiter,
			CreatedAt:    time.Now().UTC(),
		}
		if err := staff.Create(ctx, &member); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				respondWithError(c, http.StatusConflict, route, "email already registered")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusCreated, member)
	}
}

func DeleteWaiter(staff StaffStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/waiters/:id"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}
		if self, ok := middleware.StaffID(c); ok && self == id {
			respondWithError(c, http.StatusBadRequest, route, "cannot delete your own account")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := staff.Delete(ctx, restaurantID, id, models.RoleWaiter); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "waiter not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "waiter deleted"})
	}
}
