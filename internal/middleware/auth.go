package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"cheffnex/internal/models"
)

const (
	ctxClaims       = "claims"
	ctxStaffID      = "staffId"
	ctxRestaurantID = "restaurantId"
	ctxRole         = "role"
)

// IssueStaffToken signs an access token scoped to the staff member's restaurant.
func IssueStaffToken(secret string, staff models.Staff, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":          staff.ID.Hex(),
		"restaurantId": staff.RestaurantID.Hex(),
		"role":         staff.Role,
		"email":        staff.Email,
		"exp":          time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// AuthGuard accepts a bearer token from the Authorization header or, for
// websocket upgrades that cannot set headers, from the token query parameter.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c)
		if err != nil {
			zap.L().Debug("auth rejected", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		restaurantHex, _ := claims["restaurantId"].(string)
		restaurantID, err := primitive.ObjectIDFromHex(restaurantHex)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		staffHex, _ := claims["sub"].(string)
		staffID, _ := primitive.ObjectIDFromHex(staffHex)

		role, _ := claims["role"].(string)
		if !roleAllowed(role, allowedRoles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxStaffID, staffID)
		c.Set(ctxRestaurantID, restaurantID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

func StaffAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, models.RoleOwner, models.RoleWaiter)
}

// RequireRole narrows a group that already passed AuthGuard.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !roleAllowed(c.GetString(ctxRole), roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		if t := strings.TrimSpace(c.Query("token")); t != "" {
			return t, nil
		}
		return "", errors.New("missing token")
	}
	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid token")
	}
	return parts[1], nil
}

func roleAllowed(role string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// RestaurantID is the restaurant the authenticated staff member works for.
func RestaurantID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(ctxRestaurantID)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

func StaffID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(ctxStaffID)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok && !id.IsZero()
}

func Role(c *gin.Context) string {
	return c.GetString(ctxRole)
}
