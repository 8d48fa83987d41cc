package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"greendrake/estates/internal/api/handlers"
	"greendrake/estates/internal/api/middleware"
	"greendrake/estates/internal/config"
	"greendrake/estates/internal/db"
	"greendrake/estates/internal/email"
	"greendrake/estates/internal/geocode"
	"greendrake/estates/internal/models"
	"greendrake/estates/internal/services"
	"greendrake/estates/internal/storage"
	"greendrake/estates/internal/store"
)

const (
	testEmailPolls        = 10
	testEmailPollInterval = 200 * time.Millisecond
)

// Dependencies are the services behind the public API.
type Dependencies struct {
	Auth       services.IAuthService
	Properties services.IPropertyService
	Enquiries  services.IEnquiryService
	Media      services.IMediaService
	Geocoder   geocode.IGeocoder
	Ping       handlers.Pinger
}

// NewDependencies wires the Mongo stores into the services.
func NewDependencies(cfg *config.Config, logger *zap.Logger, database *mongo.Database, taskClient services.ITaskEnqueuer, storageService storage.IS3Storage) Dependencies {
	users := store.NewUserStore(database)
	properties := store.NewPropertyStore(database)
	enquiries := store.NewEnquiryStore(database)

	return Dependencies{
		Auth:       services.NewAuthService(users, properties, cfg, logger),
		Properties: services.NewPropertyService(properties, cfg, logger),
		Enquiries:  services.NewEnquiryService(enquiries, properties, users, taskClient, logger),
		Media:      services.NewMediaService(storageService, taskClient, cfg, logger),
		Geocoder:   geocode.NewNominatim(cfg, logger),
		Ping: func(ctx context.Context) error {
			return db.Ping(ctx, database)
		},
	}
}

// SetupRouter configures and returns the main Gin engine. The caller owns rateLimiter and
// closes it on shutdown.
func SetupRouter(cfg *config.Config, logger *zap.Logger, deps Dependencies, rateLimiter *middleware.RateLimiterMiddleware) (*gin.Engine, error) {
	r := gin.New()
	// Client IPs come from X-Forwarded-For only when the peer is a configured proxy.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	// Order matters: CORS answers preflights before they count against the limit.
	r.Use(middleware.RequestLogger(logger), gin.Recovery())
	r.Use(middleware.CORS(cfg.CorsOrigins))
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewAuthHandler(deps.Auth, cfg, logger)
	propertyHandler := handlers.NewPropertyHandler(deps.Properties, logger)
	enquiryHandler := handlers.NewEnquiryHandler(deps.Enquiries, logger)
	uploadHandler := handlers.NewUploadHandler(deps.Media, cfg, logger)
	geocodeHandler := handlers.NewGeocodeHandler(deps.Geocoder, logger)
	healthHandler := handlers.NewHealthHandler(deps.Ping, logger)

	requireAuth := middleware.Auth(cfg)
	optionalAuth := middleware.OptionalAuth(cfg)

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/me", requireAuth, authHandler.Me)
			authGroup.PUT("/me", requireAuth, authHandler.UpdateProfile)
			authGroup.PUT("/change-phone", requireAuth, authHandler.ChangePhone)
			authGroup.POST("/save-property/:id", requireAuth, authHandler.ToggleSavedProperty)
			authGroup.GET("/saved-properties", requireAuth, authHandler.SavedProperties)
		}

		properties := api.Group("/properties")
		{
			properties.GET("", propertyHandler.List)
			properties.GET("/:id", propertyHandler.Get)
			properties.POST("", optionalAuth, propertyHandler.Create)
			properties.PUT("/:id", requireAuth, propertyHandler.Update)
			properties.DELETE("/:id", requireAuth, propertyHandler.Delete)
		}

		enquiries := api.Group("/enquiries", requireAuth)
		{
			enquiries.POST("", enquiryHandler.Create)
			enquiries.GET("/my-sent", enquiryHandler.MySent)
			enquiries.GET("/my-received", middleware.RequireRoles(models.RoleAgent), enquiryHandler.MyReceived)
			enquiries.GET("/:id", enquiryHandler.Get)
			enquiries.PATCH("/:id/read", enquiryHandler.MarkRead)
			enquiries.POST("/:id/messages", enquiryHandler.AppendMessage)
			enquiries.DELETE("/:id", enquiryHandler.Delete)
		}

		api.POST("/uploads/image", optionalAuth, uploadHandler.UploadImage)

		geo := api.Group("/geocode")
		{
			geo.GET("/search", geocodeHandler.Search)
			geo.GET("/reverse", geocodeHandler.Reverse)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.Response{Success: false, Error: "Route not found"})
	})

	return r, nil
}

type serviceRequest struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments"`
}

// SetupServiceRouter configures the internal service API used by operators and end-to-end tests.
// getTestEmail reads messages captured by the Redis mock sender.
func SetupServiceRouter(cfg *config.Config, logger *zap.Logger, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req serviceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handlers.Response{Success: false, Error: "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			logger.Info("shutdown requested via service API")
			c.JSON(http.StatusOK, handlers.Response{Success: true, Data: "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				logger.Warn("shutdown already signalled")
			}

		case "getTestEmail":
			getTestEmail(c, cfg, logger, rdb, req.Arguments)

		default:
			c.JSON(http.StatusNotFound, handlers.Response{Success: false, Error: fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// getTestEmail expects arguments ["actionType", "email"] and polls briefly, since the message is sent by a background task.
func getTestEmail(c *gin.Context, cfg *config.Config, logger *zap.Logger, rdb *redis.Client, rawArgs json.RawMessage) {
	if !cfg.MockServices || rdb == nil {
		c.JSON(http.StatusBadRequest, handlers.Response{Success: false, Error: "Mock services are disabled"})
		return
	}

	var args []string
	if err := json.Unmarshal(rawArgs, &args); err != nil || len(args) != 2 {
		c.JSON(http.StatusBadRequest, handlers.Response{Success: false, Error: "Invalid arguments: expected JSON array [actionType, email]"})
		return
	}
	actionType, to := args[0], args[1]

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

poll:
	for i := 0; i < testEmailPolls; i++ {
		stored, err := email.GetStoredEmail(ctx, rdb, to, actionType)
		if err == nil {
			if err := email.DeleteStoredEmail(ctx, rdb, to, actionType); err != nil {
				logger.Warn("failed to delete stored email", zap.String("to", to), zap.Error(err))
			}
			c.JSON(http.StatusOK, handlers.Response{Success: true, Data: stored})
			return
		}
		if !errors.Is(err, email.ErrNoStoredEmail) {
			logger.Error("service API: reading stored email", zap.String("to", to), zap.Error(err))
			c.JSON(http.StatusInternalServerError, handlers.Response{Success: false, Error: "Redis error"})
			return
		}

		select {
		case <-ctx.Done():
			break poll
		case <-time.After(testEmailPollInterval):
		}
	}

	c.JSON(http.StatusNotFound, handlers.Response{Success: false, Error: fmt.Sprintf("Test email not found for %s (%s)", to, actionType)})
}
