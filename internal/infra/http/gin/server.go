package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"gearshare/internal/infra/config"
	"gearshare/internal/infra/obs"
)

type ItemHTTP interface {
	Create(c *gin.Context)
	SetActive(c *gin.Context)
}

type RentalHTTP interface {
	Request(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
	ListMine(c *gin.Context)
	ListOwned(c *gin.Context)
}

type AvailabilityHTTP interface {
	AddWindow(c *gin.Context)
	RemoveWindow(c *gin.Context)
	Calendar(c *gin.Context)
}

type PaymentHTTP interface {
	CreateHold(c *gin.Context)
	Retry(c *gin.Context)
	Refund(c *gin.Context)
	ChargeDeposit(c *gin.Context)
	ReleaseDeposit(c *gin.Context)
}

type WebhookHTTP interface {
	Receive(c *gin.Context)
}

type Handlers struct {
	Item           ItemHTTP
	Rental         RentalHTTP
	Availability   AvailabilityHTTP
	Payment        PaymentHTTP
	Webhook        WebhookHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	// The webhook route bypasses gateway auth: the provider authenticates
	// with the signature header instead.
	if h.Webhook != nil {
		router.POST("/webhooks/payments", h.Webhook.Receive)
	}

	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	api := router.Group("/api/v1")
	if h.Item != nil {
		api.POST("/items", h.Item.Create)
		api.PATCH("/items/:id/active", h.Item.SetActive)
	}
	if h.Availability != nil {
		api.GET("/items/:id/calendar", h.Availability.Calendar)
		api.POST("/items/:id/windows", h.Availability.AddWindow)
		api.DELETE("/items/:id/windows/:windowID", h.Availability.RemoveWindow)
	}
	if h.Rental != nil {
		api.POST("/rentals", h.Rental.Request)
		api.POST("/rentals/:id/approve", h.Rental.Approve)
		api.POST("/rentals/:id/reject", h.Rental.Reject)
		api.POST("/rentals/:id/cancel", h.Rental.Cancel)
		api.POST("/rentals/:id/complete", h.Rental.Complete)
		api.GET("/me/rentals", h.Rental.ListMine)
		api.GET("/me/items/rentals", h.Rental.ListOwned)
	}
	if h.Payment != nil {
		api.POST("/rentals/:id/payment/hold", h.Payment.CreateHold)
		api.POST("/rentals/:id/payment/retry", h.Payment.Retry)
		api.POST("/payments/:id/refund", h.Payment.Refund)
		api.POST("/rentals/:id/deposit/charge", h.Payment.ChargeDeposit)
		api.POST("/rentals/:id/deposit/release", h.Payment.ReleaseDeposit)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
