package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cheffnex/internal/cache"
	"cheffnex/internal/cart"
	"cheffnex/internal/checkout"
	"cheffnex/internal/metrics"
	"cheffnex/internal/money"
)

const (
	idempotencyHeader = "Idempotency-Key"
	cartClearTimeout  = 2 * time.Second
)

type Submitter interface {
	Mode() checkout.Mode
	Submit(ctx context.Context, store *cart.Store, w *checkout.Wizard, token string) (checkout.Result, error)
}

type checkoutRequest struct {
	Fulfillment checkout.Fulfillment `json:"fulfillment" binding:"omitempty,oneof=pickup delivery local"`
	Address     checkout.Address     `json:"address"`
	Table       string               `json:"table"`
	Payment     checkout.Payment     `json:"payment"`
	ChangeFor   string               `json:"changeFor"`
	Name        string               `json:"name"`
	Phone       string               `json:"phone"`
}

type checkoutResponse struct {
	OrderID        string `json:"orderId,omitempty"`
	Message        string `json:"message"`
	Link           string `json:"link"`
	Total          string `json:"total"`
	FormattedTotal string `json:"formattedTotal"`
}

// Checkout walks the wizard with the submitted answers and, when every step
// is complete, submits the cart. The cart survives any failure.
func Checkout(carts cache.CartCache, submitter Submitter, m *metrics.ServerMetrics, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/:session/checkout"
		defer handlePanic(c, route)

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		session, ok := loadSession(ctx, c, carts, route)
		if !ok {
			return
		}

		w := checkout.NewWizard()
		form := w.Form()
		if req.Fulfillment != "" {
			form.Fulfillment = req.Fulfillment
		}
		form.Address = req.Address
		form.Table = req.Table
		form.Payment = req.Payment
		form.ChangeFor = req.ChangeFor
		form.Name = req.Name
		form.Phone = req.Phone

		outcome := "ok"
		defer func() {
			if m != nil {
				m.Checkouts.WithLabelValues(string(submitter.Mode()), outcome).Inc()
			}
		}()

		var stepErr *checkout.StepError
		if err := w.Walk(); errors.As(err, &stepErr) {
			outcome = "incomplete"
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"error": "checkout incomplete",
				"step":  int(stepErr.Step),
				"label": stepErr.Step.Label(),
			})
			return
		}

		store := session.Store()
		token := submissionToken(c, session)
		result, err := submitter.Submit(ctx, store, w, token)
		if err != nil {
			outcome = respondCheckoutError(c, route, err)
			return
		}

		// The order exists now, so the cart must empty even when the checkout
		// deadline already passed.
		clearCtx, clearCancel := context.WithTimeout(context.Background(), cartClearTimeout)
		defer clearCancel()
		session.Save(store, time.Now().UTC())
		if err := carts.Set(clearCtx, session); err != nil {
			zap.L().Warn("cart not cleared after checkout", zap.String("session", session.ID), zap.Error(err))
		}

		c.JSON(http.StatusCreated, checkoutResponse{
			OrderID:        result.OrderID,
			Message:        result.Message,
			Link:           result.Link,
			Total:          result.Total.StringFixed(2),
			FormattedTotal: "R$ " + money.Format(result.Total),
		})
	}
}

// submissionToken prefers the client's Idempotency-Key. Without one the cart
// revision stands in, so two submits of the same unchanged cart share a token.
func submissionToken(c *gin.Context, session *cache.Session) string {
	if key := strings.TrimSpace(c.GetHeader(idempotencyHeader)); key != "" {
		return key
	}
	return "cart:" + session.ID + ":" + strconv.FormatInt(session.UpdatedAt.UnixNano(), 10)
}

func respondCheckoutError(c *gin.Context, route string, err error) string {
	switch {
	case errors.Is(err, checkout.ErrNotReady):
		respondWithError(c, http.StatusUnprocessableEntity, route, "checkout incomplete")
		return "incomplete"
	case errors.Is(err, checkout.ErrEmptyCart):
		respondWithError(c, http.StatusUnprocessableEntity, route, "cart is empty")
		return "empty"
	case errors.Is(err, checkout.ErrDuplicateSubmission):
		respondWithError(c, http.StatusConflict, route, "order already submitted")
		return "duplicate"
	case errors.Is(err, checkout.ErrRestaurantNotFound):
		respondWithError(c, http.StatusNotFound, route, "restaurant not found")
		return "failed"
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(c, http.StatusGatewayTimeout, route, "checkout timed out")
		return "timeout"
	case errors.Is(err, checkout.ErrPersist):
		respondWithError(c, http.StatusBadGateway, route, "order could not be saved, please try again")
		return "failed"
	}
	zap.L().Error("checkout failed", zap.String("route", route), zap.Error(err))
	respondWithError(c, http.StatusInternalServerError, route, "checkout failed")
	return "failed"
}
