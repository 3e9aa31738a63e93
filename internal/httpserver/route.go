package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Bourhlef-Y/fivemarket/internal/middleware/auth"
)

type Deps struct {
	AuthHandler     *AuthHTTP
	ResourceHandler *ResourceHTTP
	ListingHandler  *ListingHTTP
	CartHandler     *CartHTTP
	OrderHandler    *OrderHTTP
	SellerHandler   *SellerHTTP
	JWTSecret       []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	mw := &authmw.Middleware{JWTSecret: d.JWTSecret}

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	resources := e.Group("/resources")
	resources.GET("", d.ListingHandler.List)
	resources.GET("/search", d.ListingHandler.SearchResources)
	resources.GET("/:id", d.ResourceHandler.Get)

	seller := resources.Group("", mw.RequireSeller)
	seller.POST("", d.ResourceHandler.Create)
	seller.GET("/mine", d.ResourceHandler.Mine)
	seller.PATCH("/:id", d.ResourceHandler.Patch)
	seller.DELETE("/:id", d.ResourceHandler.Delete)
	seller.POST("/:id/submit", d.ResourceHandler.Submit)
	seller.POST("/:id/withdraw", d.ResourceHandler.Withdraw)
	seller.POST("/:id/suspend", d.ResourceHandler.Suspend)
	seller.PUT("/:id/file", d.ResourceHandler.AttachFile)
	seller.PUT("/:id/images", d.ResourceHandler.SetImages)
	seller.PUT("/:id/escrow", d.ResourceHandler.SetEscrow)

	moderation := resources.Group("", mw.RequireAdmin)
	moderation.POST("/:id/approve", d.ResourceHandler.Approve)
	moderation.POST("/:id/reject", d.ResourceHandler.Reject)

	cart := e.Group("/cart", mw.RequireAuth)
	cart.GET("", d.CartHandler.Get)
	cart.POST("", d.CartHandler.Add)
	cart.DELETE("/:resource_id", d.CartHandler.Remove)
	cart.DELETE("", d.CartHandler.Clear)

	orders := e.Group("/orders", mw.RequireAuth)
	orders.POST("/checkout", d.OrderHandler.Checkout)
	orders.GET("/purchases", d.OrderHandler.ListPurchases)
	orders.GET("/sales", d.OrderHandler.ListSales, mw.RequireSeller)
	orders.GET("/:id", d.OrderHandler.Get)
	orders.POST("/:id/confirm", d.OrderHandler.Confirm)
	orders.POST("/:id/deliver", d.OrderHandler.Deliver, mw.RequireSeller)
	orders.POST("/:id/cancel", d.OrderHandler.Cancel)
	orders.GET("/:id/download", d.OrderHandler.Download)

	sellerReqs := e.Group("/seller", mw.RequireAuth)
	sellerReqs.POST("/requests", d.SellerHandler.Request)
	sellerReqs.GET("/revenue", d.SellerHandler.Revenue, mw.RequireSeller)

	admin := e.Group("/admin", mw.RequireAdmin)
	admin.GET("/seller-requests", d.SellerHandler.ListRequests)
	admin.POST("/seller-requests/:id/resolve", d.SellerHandler.Resolve)
	admin.GET("/stats", d.SellerHandler.Stats)
}
