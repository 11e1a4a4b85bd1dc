package main

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type routeDeps struct {
	jwtService     *auth.JWTService
	tokenBlacklist auth.TokenBlacklist
	log            *zap.Logger

	system      *handler.SystemHandler
	auth        *handler.AuthHandler
	order       *handler.OrderHandler
	userOrder   *handler.UserOrderHandler
	orderStatus *handler.OrderStatusHandler
	checkout    *handler.CheckoutHandler
	method      *handler.PaymentMethodHandler
	payment     *handler.PaymentHandler
	fulfillment *handler.FulfillmentHandler
	shipping    *handler.ShippingHandler
	tax         *handler.TaxHandler
	stock       *handler.StockHandler
	product     *handler.ProductHandler
	report      *handler.ReportHandler
	outbox      *handler.OutboxHandler
}

func setupRoutes(engine *gin.Engine, cfg *config.Config, d routeDeps) {
	requireJWT := middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService:     d.jwtService,
		TokenBlacklist: d.tokenBlacklist,
		Logger:         d.log,
	})
	optionalJWT := middleware.OptionalJWTAuthMiddleware(d.jwtService)

	engine.GET("/health", d.system.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, requireJWT, middleware.RequireRole(auth.RoleAdmin)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", d.auth.Login)
	authRoutes.POST("/logout", requireJWT, d.auth.Logout)
	authRoutes.GET("/me", requireJWT, d.auth.GetCurrentUser)

	catalogRoutes := router.NewDomainGroup("catalog", "/products")
	catalogRoutes.GET("", d.product.ListPublic)
	catalogRoutes.GET("/:id", d.product.GetPublic)

	cartRoutes := router.NewDomainGroup("cart", "/cart").Use(optionalJWT)
	cartRoutes.POST("", d.checkout.CreateCart)
	cartRoutes.POST("/checkout/:id/start", d.checkout.Start)
	cartRoutes.PUT("/checkout/:id", d.checkout.Update)
	cartRoutes.GET("/checkout/:id/review", d.checkout.Review)
	cartRoutes.POST("/checkout/:id/complete", d.checkout.Complete)

	paypalRoutes := router.NewDomainGroup("paypal", "/paypal").Use(optionalJWT)
	paypalRoutes.POST("/checkout/:id", d.checkout.PayPalCreate)
	paypalRoutes.POST("/checkout/:id/complete", d.checkout.PayPalComplete)

	userRoutes := router.NewDomainGroup("user", "/user").
		Use(requireJWT, middleware.RequireRole(auth.RoleCustomer, auth.RoleAdmin))
	userRoutes.GET("/orders", d.userOrder.List)
	userRoutes.GET("/orders/:id", d.userOrder.Get)

	adminRoutes := router.NewDomainGroup("admin", "/admin").
		Use(requireJWT, middleware.RequireRole(auth.RoleAdmin))
	registerOrderRoutes(adminRoutes.Group("orders", "/store/orders"), d)
	registerConfigRoutes(adminRoutes.Group("config", "/store/config"), d)

	products := adminRoutes.Group("products", "/store/products")
	products.GET("", d.product.List)
	products.POST("", d.product.Create)
	products.GET("/:id", d.product.Get)
	products.PUT("/:id", d.product.Update)
	products.PUT("/:id/active", d.product.SetActive)
	products.DELETE("/:id", d.product.Delete)

	reports := adminRoutes.Group("reports", "/store/reports")
	reports.GET("/customers", d.report.Customers)
	reports.GET("/products", d.report.Products)
	reports.GET("/sales", d.report.Summary)
	reports.GET("/sales/year", d.report.Yearly)
	reports.GET("/sales/custom", d.report.Custom)
	reports.GET("/getcsv/:report/:user", d.report.GetCSV)
	reports.GET("/archive", d.report.ArchiveURL)
	reports.POST("/archive", d.report.Archive)

	system := adminRoutes.Group("system", "/system")
	system.GET("/info", d.system.GetSystemInfo)
	system.GET("/outbox/stats", d.outbox.Stats)
	system.GET("/outbox/dead", d.outbox.DeadLetters)
	system.POST("/outbox/dead/retry-all", d.outbox.RetryAll)
	system.GET("/outbox/:id", d.outbox.Get)
	system.POST("/outbox/:id/retry", d.outbox.Retry)

	r.Register(authRoutes, catalogRoutes, cartRoutes, paypalRoutes, userRoutes, adminRoutes)
	r.Setup()

	d.log.Info("Routes registered", zap.Int("routes", len(engine.Routes())))
}

func registerOrderRoutes(orders *router.DomainGroup, d routeDeps) {
	orders.GET("", d.order.List)
	orders.POST("", d.order.Create)
	orders.GET("/:id", d.order.Get)
	orders.PUT("/:id", d.order.Update)
	orders.DELETE("/:id", d.order.Delete)
	orders.DELETE("/:id/purge", d.order.Purge)
	orders.PUT("/:id/status", d.order.UpdateStatus)
	orders.GET("/:id/comments", d.order.Comments)
	orders.POST("/:id/comments", d.order.AddComment)
	orders.POST("/:id/admin-comments", d.order.AddAdminComment)
	orders.POST("/:id/products", d.order.AddProduct)
	orders.PUT("/:id/products/:product_id", d.order.UpdateProduct)
	orders.DELETE("/:id/products/:product_id", d.order.RemoveProduct)
	orders.POST("/:id/line-items", d.order.AddLineItem)
	orders.DELETE("/:id/line-items/:line_item_id", d.order.RemoveLineItem)
	orders.GET("/:id/tracking", d.order.Tracking)

	orders.GET("/:id/payments", d.payment.List)
	orders.POST("/:id/payments", d.payment.Enter)
	orders.DELETE("/:id/payments/:receipt_id", d.payment.Delete)
	orders.POST("/:id/receive-check", d.payment.ReceiveCheck)
	orders.GET("/:id/credit", d.payment.Terminal)
	orders.POST("/:id/credit", d.payment.Process)

	orders.GET("/:id/packages/new", d.fulfillment.Unpackaged)
	orders.GET("/:id/packages", d.fulfillment.Packages)
	orders.POST("/:id/packages", d.fulfillment.CreatePackages)
	orders.PUT("/:id/packages/:package_id", d.fulfillment.UpdatePackage)
	orders.DELETE("/:id/packages/:package_id", d.fulfillment.DeletePackage)
	orders.GET("/:id/shipments", d.fulfillment.Shipments)
	orders.POST("/:id/shipments", d.fulfillment.CreateShipment)
	orders.PUT("/:id/shipments/:shipment_id", d.fulfillment.UpdateShipment)
	orders.DELETE("/:id/shipments/:shipment_id", d.fulfillment.DeleteShipment)

	orders.GET("/:id/quote", d.shipping.Quote)
	orders.GET("/:id/tax", d.tax.Calculate)
}

func registerConfigRoutes(conf *router.DomainGroup, d routeDeps) {
	conf.GET("/orders/statuses", d.orderStatus.Config)
	conf.POST("/orders/statuses", d.orderStatus.Create)
	conf.GET("/orders/statuses/:id", d.orderStatus.Get)
	conf.PUT("/orders/statuses/:id", d.orderStatus.Update)
	conf.DELETE("/orders/statuses/:id", d.orderStatus.Delete)
	conf.PUT("/orders/states/:state/default", d.orderStatus.SetStateDefault)

	conf.GET("/payment", d.method.List)
	conf.POST("/payment", d.method.Create)
	conf.GET("/payment/:id", d.method.Get)
	conf.PUT("/payment/:id", d.method.Update)
	conf.DELETE("/payment/:id", d.method.Delete)
	conf.POST("/payment/:id/enable", d.method.Enable)
	conf.POST("/payment/:id/disable", d.method.Disable)

	conf.GET("/shipping", d.shipping.List)
	conf.POST("/shipping", d.shipping.Create)
	conf.GET("/shipping/:id", d.shipping.Get)
	conf.PUT("/shipping/:id", d.shipping.Update)
	conf.DELETE("/shipping/:id", d.shipping.Delete)
	conf.POST("/shipping/:id/enable", d.shipping.Enable)
	conf.POST("/shipping/:id/disable", d.shipping.Disable)

	conf.GET("/taxes", d.tax.List)
	conf.POST("/taxes", d.tax.Create)
	conf.GET("/taxes/:id", d.tax.Get)
	conf.PUT("/taxes/:id", d.tax.Update)
	conf.DELETE("/taxes/:id", d.tax.Delete)
	conf.POST("/taxes/:id/clone", d.tax.Clone)
	conf.POST("/taxes/:id/enable", d.tax.Enable)
	conf.POST("/taxes/:id/disable", d.tax.Disable)

	conf.GET("/stock", d.stock.List)
	conf.GET("/stock/:sku", d.stock.Get)
	conf.PUT("/stock/:sku", d.stock.Set)
}
