package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"cheffnex/internal/cart"
	"cheffnex/internal/events"
	"cheffnex/internal/models"
)

// Mode selects what a submission does besides building the message.
type Mode string

const (
	// ModeMessage only builds a link addressed to the restaurant.
	ModeMessage Mode = "message"
	// ModePersist saves the order first and builds a recipient-agnostic link.
	ModePersist Mode = "persist"
)

func (m Mode) Valid() bool {
	return m == ModeMessage || m == ModePersist
}

type OrderWriter interface {
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) (string, error)
}

type RestaurantResolver interface {
	RestaurantForProduct(ctx context.Context, productID primitive.ObjectID) (models.Restaurant, error)
}

// TokenGuard makes sure one submission token produces at most one order.
type TokenGuard interface {
	Claim(ctx context.Context, token string) (bool, error)
	Release(ctx context.Context, token string) error
}

type Result struct {
	OrderID string          `json:"orderId,omitempty"`
	Message string          `json:"message"`
	Link    string          `json:"link"`
	Total   decimal.Decimal `json:"total"`
}

type Submitter struct {
	mode        Mode
	orders      OrderWriter
	restaurants RestaurantResolver
	tokens      TokenGuard
	events      events.Publisher
	now         func() time.Time
}

func NewSubmitter(mode Mode, orders OrderWriter, restaurants RestaurantResolver, tokens TokenGuard, publisher events.Publisher) *Submitter {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Submitter{
		mode:        mode,
		orders:      orders,
		restaurants: restaurants,
		tokens:      tokens,
		events:      publisher,
		now:         time.Now,
	}
}

func (s *Submitter) Mode() Mode { return s.mode }

// Submit finishes a checkout. The cart is cleared only when every step
// succeeded; on any error the cart and the wizard answers stay as they were.
func (s *Submitter) Submit(ctx context.Context, store *cart.Store, w *Wizard, token string) (Result, error) {
	if !w.Ready() {
		return Result{}, &StepError{Step: w.Step()}
	}
	if store.Len() == 0 {
		return Result{}, ErrEmptyCart
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if token != "" && s.tokens != nil {
		ok, err := s.tokens.Claim(ctx, token)
		if err != nil {
			return Result{}, fmt.Errorf("claim submission token: %w", err)
		}
		if !ok {
			return Result{}, ErrDuplicateSubmission
		}
	}

	items := store.Items()
	total := store.Total()
	form := *w.Form()
	message := FormatMessage(items, total, form)

	var (
		result Result
		err    error
	)
	if s.mode == ModePersist {
		result, err = s.persist(ctx, items, total, form, message)
	} else {
		result = s.addressed(ctx, items, message)
	}
	if err != nil {
		s.release(token)
		return Result{}, err
	}

	result.Total = total
	store.Clear()
	return result, nil
}

func (s *Submitter) persist(ctx context.Context, items []cart.LineItem, total decimal.Decimal, form Form, message string) (Result, error) {
	restaurant, err := s.restaurantFor(ctx, items)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrRestaurantNotFound, err)
	}

	order, orderItems, err := BuildOrder(restaurant.ID, items, total, form, s.now())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	orderID, err := s.orders.CreateOrder(ctx, &order, orderItems)
	if err != nil {
		zap.L().Error("order persist failed",
			zap.String("restaurantId", restaurant.ID.Hex()),
			zap.Int("items", len(orderItems)),
			zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	zap.L().Info("order created",
		zap.String("orderId", orderID),
		zap.String("restaurantId", restaurant.ID.Hex()),
		zap.String("total", total.StringFixed(2)))

	if err := s.events.Publish(ctx, events.Event{
		Type:         events.OrderCreated,
		RestaurantID: restaurant.ID.Hex(),
		OrderID:      orderID,
		Status:       string(order.Status),
		Total:        order.TotalAmount,
		At:           order.CreatedAt,
	}); err != nil {
		zap.L().Warn("order created event not delivered", zap.String("orderId", orderID), zap.Error(err))
	}

	return Result{OrderID: orderID, Message: message, Link: Link("", message)}, nil
}

// addressed builds the link to the restaurant's own number. Without a
// resolvable phone the link still opens, just without a recipient.
func (s *Submitter) addressed(ctx context.Context, items []cart.LineItem, message string) Result {
	phone := ""
	restaurant, err := s.restaurantFor(ctx, items)
	if err != nil {
		zap.L().Warn("restaurant phone not resolved", zap.Error(err))
	} else {
		phone = restaurant.Phone
	}
	return Result{Message: message, Link: Link(phone, message)}
}

func (s *Submitter) restaurantFor(ctx context.Context, items []cart.LineItem) (models.Restaurant, error) {
	if s.restaurants == nil {
		return models.Restaurant{}, errors.New("no restaurant resolver")
	}
	productID, err := primitive.ObjectIDFromHex(items[0].Product.ID)
	if err != nil {
		return models.Restaurant{}, err
	}
	return s.restaurants.RestaurantForProduct(ctx, productID)
}

// release frees a claimed token so the customer can retry with it.
func (s *Submitter) release(token string) {
	if token == "" || s.tokens == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.tokens.Release(ctx, token); err != nil {
		zap.L().Warn("submission token not released", zap.Error(err))
	}
}
