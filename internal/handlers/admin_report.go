package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cheffnex/internal/models"
	"cheffnex/internal/repository"
)

const dateLayout = "2006-01-02"

type CreateExpenseRequest struct {
	Description   string  `json:"description" binding:"required"`
	Category      string  `json:"category" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod"`
	Notes         string  `json:"notes"`
	ExpenseDate   string  `json:"expenseDate"`
}

// reportRange reads ?from=YYYY-MM-DD&to=YYYY-MM-DD, both inclusive. Without
// them the range is the current month.
func reportRange(c *gin.Context, now time.Time) (time.Time, time.Time, error) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return from, to, nil
}

type reportSummary struct {
	repository.Summary
	From     string  `json:"from"`
	To       string  `json:"to"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

func ReportSummary(board OrderBoard, expenses ExpenseStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reports/summary"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		from, to, err := reportRange(c, time.Now().UTC())
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		summary, err := board.Summary(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		spent, err := expenses.Total(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, reportSummary{
			Summary:  summary,
			From:     from.Format(dateLayout),
			To:       to.AddDate(0, 0, -1).Format(dateLayout),
			Expenses: spent,
			Profit:   summary.Revenue - spent,
		})
	}
}

func GetExpenses(expenses ExpenseStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/expenses"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		from, to, err := reportRange(c, time.Now().UTC())
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		list, err := expenses.List(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

func CreateExpense(expenses ExpenseStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/expenses"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		var req CreateExpenseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		now := time.Now().UTC()
		date := now
		if raw := strings.TrimSpace(req.ExpenseDate); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "expenseDate must be YYYY-MM-DD")
				return
			}
			date = parsed
		}

		expense := models.Expense{
			RestaurantID:  restaurantID,
			Description:   strings.TrimSpace(req.Description),
			Category:      strings.TrimSpace(req.Category),
			Amount:        req.Amount,
			PaymentMethod: strings.TrimSpace(req.PaymentMethod),
			Notes:         strings.TrimSpace(req.Notes),
			ExpenseDate:   date,
			CreatedAt:     now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := expenses.Create(ctx, &expense); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusCreated, expense)
	}
}

func DeleteExpense(expenses ExpenseStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/expenses/:id"
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

		if err := expenses.Delete(ctx, restaurantID, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "expense not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "expense deleted"})
	}
}
