package routes

import (
	"storefront-core/handlers"
	"storefront-core/middleware"
	"storefront-core/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Options carries the collaborators of the store routes. A nil Limiter
// leaves the code endpoints unthrottled.
type Options struct {
	APIKey  string
	Mailer  utils.Mailer
	Limiter *middleware.RateLimiter
}

func SetupRoutes(r *gin.Engine, db *gorm.DB, opts Options) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db, Mailer: opts.Mailer}
	productHandler := &handlers.ProductHandler{DB: db}
	categoryHandler := &handlers.CategoryHandler{DB: db}
	cartHandler := &handlers.CartHandler{DB: db}
	favouriteHandler := &handlers.FavouriteHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db}
	profileHandler := &handlers.ProfileHandler{DB: db}

	throttle := func(c *gin.Context) { c.Next() }
	if opts.Limiter != nil {
		throttle = opts.Limiter.Middleware()
	}

	// Data routes; row ownership is enforced per collection
	rest := r.Group("/rest/v1")
	rest.Use(middleware.APIKeyMiddleware(opts.APIKey), middleware.AuthMiddleware(opts.APIKey))
	{
		rest.GET("/products", productHandler.GetProducts)
		rest.GET("/categories", categoryHandler.GetCategories)

		rest.GET("/cart", cartHandler.GetCart)
		rest.POST("/cart", cartHandler.AddToCart)
		rest.PATCH("/cart", cartHandler.UpdateCartItem)
		rest.DELETE("/cart", cartHandler.RemoveFromCart)

		rest.GET("/favourite", favouriteHandler.GetFavourites)
		rest.POST("/favourite", favouriteHandler.AddFavourite)
		rest.DELETE("/favourite", favouriteHandler.RemoveFavourite)

		rest.GET("/orders", orderHandler.GetOrders)
		rest.POST("/orders", orderHandler.CreateOrder)
		rest.GET("/orders_items", orderHandler.GetOrderLines)
		rest.POST("/orders_items", orderHandler.CreateOrderLines)

		rest.GET("/profiles", profileHandler.GetProfiles)
		rest.PATCH("/profiles", profileHandler.UpdateProfile)
	}

	// Identity routes
	auth := r.Group("/auth/v1")
	auth.Use(middleware.APIKeyMiddleware(opts.APIKey), middleware.AuthMiddleware(opts.APIKey))
	{
		auth.POST("/signup", throttle, authHandler.SignUp)
		auth.POST("/token", authHandler.Token)
		auth.POST("/otp", throttle, authHandler.SendOTP)
		auth.POST("/recover", throttle, authHandler.Recover)
		auth.POST("/verify", throttle, authHandler.Verify)
	}

	signedIn := auth.Group("")
	signedIn.Use(middleware.RequireUser())
	{
		signedIn.PUT("/user", authHandler.UpdateUser)
		signedIn.POST("/logout", authHandler.Logout)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
