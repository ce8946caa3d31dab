package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cheffnex/internal/middleware"
	"cheffnex/internal/repository"
)

type StaffLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func StaffLogin(staff StaffStore, jwtSecret string, accessTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/login"
		defer handlePanic(c, route)

		var req StaffLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		member, err := staff.ByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		signed, err := middleware.IssueStaffToken(jwtSecret, member, accessTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		zap.L().Info("staff logged in",
			zap.String("staffId", member.ID.Hex()),
			zap.String("restaurantId", member.RestaurantID.Hex()),
			zap.String("role", member.Role))
		c.JSON(http.StatusOK, gin.H{
			"token":        signed,
			"role":         member.Role,
			"restaurantId": member.RestaurantID.Hex(),
			"fullName":     member.FullName,
		})
	}
}
