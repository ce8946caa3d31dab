package selection

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"cheffnex/internal/models"
)

// Catalog is the read side the customization wizard depends on.
type Catalog interface {
	Removables(ctx context.Context, productID primitive.ObjectID) ([]string, error)
	Extras(ctx context.Context, productID primitive.ObjectID) ([]models.Extra, error)
	CrossSellRules(ctx context.Context, categoryID primitive.ObjectID) ([]models.CrossSellRule, error)
	ProductsInCategories(ctx context.Context, categoryIDs []primitive.ObjectID) ([]models.Product, error)
}

// Loader fetches wizard options. Every read fails open: an error or an open
// breaker yields an empty list so the customer can still order.
type Loader struct {
	catalog Catalog
	breaker *gobreaker.CircuitBreaker[any]
}

func NewLoader(catalog Catalog) *Loader {
	settings := gobreaker.Settings{
		Name:        "catalog-options",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Loader{
		catalog: catalog,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func guarded[T any](l *Loader, what string, fn func() ([]T, error)) []T {
	out, err := l.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		zap.L().Warn("catalog read degraded to empty", zap.String("read", what), zap.Error(err))
		return []T{}
	}
	items, _ := out.([]T)
	if items == nil {
		return []T{}
	}
	return items
}

func (l *Loader) Load(ctx context.Context, product models.Product) Options {
	opts := Options{
		Removables: guarded(l, "removables", func() ([]string, error) {
			return l.catalog.Removables(ctx, product.ID)
		}),
		Extras: guarded(l, "extras", func() ([]models.Extra, error) {
			return l.catalog.Extras(ctx, product.ID)
		}),
		CrossSell: []CrossSellStep{},
	}

	if product.CategoryID.IsZero() {
		return opts
	}

	rules := guarded(l, "cross-sell rules", func() ([]models.CrossSellRule, error) {
		return l.catalog.CrossSellRules(ctx, product.CategoryID)
	})
	if len(rules) == 0 {
		return opts
	}

	categoryIDs := make([]primitive.ObjectID, 0, len(rules))
	for _, rule := range rules {
		categoryIDs = append(categoryIDs, rule.SuggestCategoryID)
	}
	suggested := guarded(l, "cross-sell products", func() ([]models.Product, error) {
		return l.catalog.ProductsInCategories(ctx, categoryIDs)
	})

	for _, rule := range rules {
		step := CrossSellStep{
			Label:      rule.StepLabel,
			CategoryID: rule.SuggestCategoryID.Hex(),
			Products:   make([]models.Product, 0),
		}
		for _, p := range suggested {
			if p.CategoryID == rule.SuggestCategoryID {
				step.Products = append(step.Products, p)
			}
		}
		opts.CrossSell = append(opts.CrossSell, step)
	}
	return opts
}
