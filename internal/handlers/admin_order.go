package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cheffnex/internal/checkout"
	"cheffnex/internal/events"
	"cheffnex/internal/models"
	"cheffnex/internal/realtime"
	"cheffnex/internal/repository"
)

type updateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,oneof=NEW PREPARING DISPATCHED COMPLETED CANCELLED"`
}

// GetOrders lists the board. ?status=NEW,PREPARING narrows it.
func GetOrders(board OrderBoard) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := repository.ListFilter{Page: page, Limit: limit}
		if raw := strings.TrimSpace(c.Query("status")); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				status := models.OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
				if !status.Valid() {
					respondWithError(c, http.StatusBadRequest, route, "invalid status: "+s)
					return
				}
				filter.Statuses = append(filter.Statuses, status)
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		orders, total, err := board.List(ctx, restaurantID, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data":  orders,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

func GetOrder(board OrderBoard) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/:id"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := board.Get(ctx, restaurantID, id)
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func UpdateOrderStatus(board OrderBoard, publisher events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}
		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := board.UpdateStatus(ctx, restaurantID, id, req.Status)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		case errors.Is(err, repository.ErrInvalidTransition):
			respondWithError(c, http.StatusUnprocessableEntity, route, err.Error())
			return
		case errors.Is(err, repository.ErrStatusConflict):
			respondWithError(c, http.StatusConflict, route, "order changed, reload the board")
			return
		case err != nil:
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		publish(ctx, publisher, events.Event{
			Type:         events.OrderStatusChanged,
			RestaurantID: restaurantID.Hex(),
			OrderID:      order.ID.Hex(),
			Status:       string(order.Status),
			Total:        order.TotalAmount,
			At:           time.Now().UTC(),
		})
		c.JSON(http.StatusOK, order)
	}
}

func DeleteOrder(board OrderBoard, publisher events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:id"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := board.Delete(ctx, restaurantID, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		publish(ctx, publisher, events.Event{
			Type:         events.OrderDeleted,
			RestaurantID: restaurantID.Hex(),
			OrderID:      id.Hex(),
			At:           time.Now().UTC(),
		})
		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

// customerNotice is the message staff send when an order leaves the kitchen.
func customerNotice(order models.Order) (string, bool) {
	name := strings.TrimSpace(order.CustomerName)
	switch order.Status {
	case models.OrderStatusDispatched:
		return fmt.Sprintf("Ola %s! Seu pedido saiu para entrega!", name), true
	case models.OrderStatusCompleted:
		return fmt.Sprintf("Ola %s! Seu pedido esta pronto!", name), true
	}
	return "", false
}

// OrderNotifyLink builds the WhatsApp link that tells the customer their
// order is on its way or ready.
func OrderNotifyLink(board OrderBoard) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/:id/notify"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		order, err := board.Get(ctx, restaurantID, id)
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if order.CustomerPhone == nil || strings.TrimSpace(*order.CustomerPhone) == "" {
			respondWithError(c, http.StatusUnprocessableEntity, route, "order has no customer phone")
			return
		}
		message, ok := customerNotice(order.Order)
		if !ok {
			respondWithError(c, http.StatusUnprocessableEntity, route, "customer is only notified for dispatched or completed orders")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": message,
			"link":    checkout.Link(*order.CustomerPhone, message),
		})
	}
}

// OrderStream subscribes a staff screen to live order events.
func OrderStream(hub *realtime.OrderHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/stream"
		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		hub.ServeWS(c, restaurantID.Hex())
	}
}

func publish(ctx context.Context, publisher events.Publisher, e events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, e); err != nil {
		zap.L().Warn("order event not delivered", zap.String("type", string(e.Type)), zap.Error(err))
	}
}
