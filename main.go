package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cheffnex/internal/cache"
	"cheffnex/internal/checkout"
	"cheffnex/internal/config"
	"cheffnex/internal/database"
	"cheffnex/internal/events"
	"cheffnex/internal/handlers"
	"cheffnex/internal/logging"
	"cheffnex/internal/metrics"
	"cheffnex/internal/middleware"
	"cheffnex/internal/models"
	"cheffnex/internal/realtime"
	"cheffnex/internal/repository"
	"cheffnex/internal/selection"
)

func main() {
	config.Load()
	env := config.AppEnv

	logger, err := logging.New(env.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if env.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	mode := checkout.Mode(env.CheckoutMode)
	if !mode.Valid() {
		logger.Fatal("invalid CHECKOUT_MODE", zap.String("mode", env.CheckoutMode))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := database.Connect(connectCtx, env.MongoURI)
	cancel()
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	db := client.Database(env.DBName)
	logger.Info("mongo connected", zap.String("db", db.Name()))

	if err := database.EnsureProductIndexes(db); err != nil {
		logger.Warn("product index warning", zap.Error(err))
	}
	if err := database.EnsureStaffIndexes(db); err != nil {
		logger.Warn("staff index warning", zap.Error(err))
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		logger.Warn("order index warning", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     env.RedisAddr,
		Password: env.RedisPassword,
		DB:       env.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", zap.String("addr", env.RedisAddr), zap.Error(err))
	}
	carts := cache.NewRedisCache(rdb, env.CartTTL)
	tokens := cache.NewTokens(rdb, env.SubmissionTokenTTL)

	catalog := repository.NewCatalog(db)
	loader := selection.NewLoader(catalog)
	orders := repository.NewOrders(db, env.MongoTransactions)
	staff := repository.NewStaff(db)
	expenses := repository.NewExpenses(db)
	reports := repository.NewReports(db)

	hub := realtime.NewOrderHub(allowOrigin(env.CORSOrigins))
	go hub.Run(ctx)

	publishers := events.Fanout{hub}
	kafka, err := events.NewKafkaPublisher(env.KafkaBrokers, env.KafkaOrdersTopic)
	switch {
	case err == nil:
		defer kafka.Close()
		publishers = append(publishers, kafka)
	case errors.Is(err, events.ErrDisabled):
		logger.Info("kafka disabled, order events stay in process")
	default:
		logger.Fatal("kafka publisher", zap.Error(err))
	}

	submitter := checkout.NewSubmitter(mode, orders, catalog, tokens, publishers)
	serverMetrics := metrics.NewServerMetrics("cheffnex")
	uploads := handlers.Uploads{Root: env.UploadDir}

	if env.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics(serverMetrics))
	r.Use(middleware.CORS(env.CORSOrigins))

	r.Static("/uploads", env.UploadDir)
	r.GET("/healthz", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(serverMetrics.Handler()))

	r.GET("/restaurants/:id", handlers.GetRestaurant(catalog))
	r.GET("/restaurants/:id/categories", handlers.GetRestaurantCategories(catalog))
	r.GET("/restaurants/:id/products", handlers.GetRestaurantProducts(catalog))
	r.GET("/products/:id/options", handlers.GetProductOptions(catalog, loader))

	r.POST("/cart", handlers.CreateCart(catalog, carts))
	r.GET("/cart/:session", handlers.GetCart(carts))
	r.DELETE("/cart/:session", handlers.ClearCart(carts))
	r.POST("/cart/:session/items", handlers.AddCartItem(catalog, loader, carts))
	r.PATCH("/cart/:session/items/:index", handlers.UpdateCartItem(carts))
	r.DELETE("/cart/:session/items/:index", handlers.RemoveCartItem(carts))
	r.POST("/cart/:session/checkout", handlers.Checkout(carts, submitter, serverMetrics, env.CheckoutTimeout))

	r.POST("/admin/login", handlers.StaffLogin(staff, env.JWTSecret, env.AccessTokenTTL))

	admin := r.Group("/admin/api")
	admin.Use(middleware.StaffAuth(env.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"role": middleware.Role(c)})
		})

		admin.GET("/orders", handlers.GetOrders(orders))
		admin.GET("/orders/stream", handlers.OrderStream(hub))
		admin.GET("/orders/:id", handlers.GetOrder(orders))
		admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(orders, publishers))
		admin.GET("/orders/:id/notify", handlers.OrderNotifyLink(orders))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(orders, publishers))

		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db, uploads))
		admin.PUT("/products/:id", handlers.UpdateProduct(db, uploads))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db, uploads))
		admin.GET("/products/:id/extras", handlers.GetProductExtras(db))
		admin.POST("/products/:id/extras", handlers.CreateProductExtra(db))
		admin.GET("/products/:id/recipe", handlers.GetRecipe(db))
		admin.PUT("/products/:id/recipe", handlers.SetRecipe(db))
		admin.PUT("/extras/:id", handlers.UpdateExtra(db))
		admin.DELETE("/extras/:id", handlers.DeleteExtra(db))

		admin.GET("/categories", handlers.GetAllCategories(db))
		admin.POST("/categories", handlers.CreateCategory(db))
		admin.PUT("/categories/:id", handlers.UpdateCategory(db))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(db))

		admin.GET("/cross-sell", handlers.GetCrossSellRules(db))
		admin.POST("/cross-sell", handlers.CreateCrossSellRule(db))
		admin.PUT("/cross-sell/:id", handlers.UpdateCrossSellRule(db))
		admin.DELETE("/cross-sell/:id", handlers.DeleteCrossSellRule(db))

		admin.GET("/ingredients", handlers.GetIngredients(db))
		admin.POST("/ingredients", handlers.CreateIngredient(db))
		admin.PUT("/ingredients/:id", handlers.UpdateIngredient(db))
		admin.DELETE("/ingredients/:id", handlers.DeleteIngredient(db))

		admin.GET("/storefront", handlers.GetStorefront(catalog))
		admin.PUT("/storefront", handlers.UpdateStorefront(db, uploads))

		admin.GET("/expenses", handlers.GetExpenses(expenses))
		admin.POST("/expenses", handlers.CreateExpense(expenses))
		admin.DELETE("/expenses/:id", handlers.DeleteExpense(expenses))
		admin.GET("/reports/summary", handlers.ReportSummary(orders, expenses))
		admin.GET("/reports/products", handlers.ProductSalesReport(reports))
		admin.GET("/reports/categories", handlers.CategorySalesReport(reports))
		admin.GET("/reports/extras", handlers.ExtraSalesReport(reports))
		admin.GET("/reports/order-types", handlers.OrderTypeReport(reports))
		admin.GET("/reports/daily", handlers.DailyRevenueReport(reports))
		admin.GET("/reports/cost", handlers.CostOfGoodsReport(reports))
		admin.GET("/reports/stock", handlers.StockReport(reports))
		admin.GET("/reports/expiring", handlers.ExpiringReport(reports))

		owner := admin.Group("")
		owner.Use(middleware.RequireRole(models.RoleOwner))
		{
			owner.GET("/waiters", handlers.GetWaiters(staff))
			owner.POST("/waiters", handlers.CreateWaiter(staff, env.MaxWaiters))
			owner.DELETE("/waiters/:id", handlers.DeleteWaiter(staff))
		}
	}

	srv := &http.Server{
		Addr:              ":" + env.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr), zap.String("checkoutMode", string(mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

// allowOrigin lets websocket upgrades through for the same origins CORS allows.
func allowOrigin(origins []string) func(r *http.Request) bool {
	if slices.Contains(origins, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
