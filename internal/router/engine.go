package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rootstofarm.com/market/go-api/pkg/auth"
	"rootstofarm.com/market/go-api/pkg/cart"
	"rootstofarm.com/market/go-api/pkg/catalog"
	"rootstofarm.com/market/go-api/pkg/farmers"
	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/models"
	"rootstofarm.com/market/go-api/pkg/orders"
	"rootstofarm.com/market/go-api/pkg/payment"
	"rootstofarm.com/market/go-api/pkg/redis"
)

const Version = "1.0.0"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Limiter interface {
	Allow(ctx context.Context, client string) (redis.Decision, error)
}

// Deps are the services the HTTP layer dispatches to. Limiter may be nil.
type Deps struct {
	Config   *global.Config
	Database Pinger
	Limiter  Limiter
	Auth     *auth.Service
	Cart     *cart.Service
	Orders   *orders.Service
	Catalog  *catalog.Service
	Farmers  *farmers.Service
	Payment  *payment.Service
}

type Handler struct {
	Deps
}

func NewEngine(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestLogger(), Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if d.Limiter != nil {
		r.Use(RateLimit(d.Limiter))
	}

	h := &Handler{Deps: d}
	h.routes(r)
	return r
}

func (h *Handler) routes(r *gin.Engine) {
	authed := RequireAuth(h.Auth)
	sellers := RequireRole(models.RoleFarmer, models.RoleAdmin)

	r.GET("/", Banner)
	r.NoRoute(NotFound)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", h.Register)
			authRoutes.POST("/login", h.Login)
			authRoutes.GET("/me", authed, h.Me)
			authRoutes.PUT("/profile", authed, h.UpdateProfile)
		}

		products := api.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.GET("/:id", h.GetProduct)
			products.POST("", authed, sellers, h.CreateProduct)
			products.PUT("/:id", authed, sellers, h.UpdateProduct)
			products.DELETE("/:id", authed, sellers, h.DeleteProduct)
			products.POST("/:id/reviews", authed, h.AddReview)
		}

		farmerRoutes := api.Group("/farmers")
		{
			farmerRoutes.GET("", h.ListFarmers)
			farmerRoutes.GET("/dashboard/stats", authed, RequireRole(models.RoleFarmer), h.DashboardStats)
			farmerRoutes.GET("/dashboard/insights", authed, RequireRole(models.RoleFarmer), h.DashboardInsights)
			farmerRoutes.POST("/profile", authed, RequireRole(models.RoleFarmer), h.CreateFarmerProfile)
			farmerRoutes.PUT("/profile", authed, RequireRole(models.RoleFarmer), h.UpdateFarmerProfile)
			farmerRoutes.GET("/:id", h.GetFarmer)
			farmerRoutes.GET("/:id/products", h.GetFarmerProducts)
		}

		cartRoutes := api.Group("/cart", authed)
		{
			cartRoutes.GET("", h.GetCart)
			cartRoutes.GET("/summary", h.GetCartSummary)
			cartRoutes.GET("/validate", h.ValidateCart)
			cartRoutes.POST("/add", h.AddToCart)
			cartRoutes.PUT("/update/:itemId", h.UpdateCartItem)
			cartRoutes.DELETE("/remove/:itemId", h.RemoveFromCart)
			cartRoutes.DELETE("/clear", h.ClearCart)
		}

		guest := api.Group("/guest-cart")
		{
			guest.POST("", h.CreateGuestCart)
			guest.GET("/:id", h.GetGuestCart)
			guest.POST("/:id/items", h.AddToGuestCart)
		}

		orderRoutes := api.Group("/orders", authed)
		{
			orderRoutes.POST("", h.CreateOrder)
			orderRoutes.GET("/my-orders", h.GetMyOrders)
			orderRoutes.GET("/:id", h.GetOrder)
			orderRoutes.PUT("/:id/status", h.UpdateOrderStatus)
			orderRoutes.PUT("/:id/cancel", h.CancelOrder)
		}

		pay := api.Group("/payment")
		{
			pay.POST("/create-payment-intent", authed, h.CreatePaymentIntent)
			pay.POST("/webhook", h.PaymentWebhook)
		}
	}
}
