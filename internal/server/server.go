package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/hojimahmudov/orderbot/internal/config"
	"github.com/hojimahmudov/orderbot/internal/handler"
	"github.com/hojimahmudov/orderbot/internal/middleware"
	"github.com/hojimahmudov/orderbot/internal/repository"
	"github.com/hojimahmudov/orderbot/internal/service"
)

type Server struct {
	echo *echo.Echo
}

type Services struct {
	Auth     service.AuthService
	Cart     service.CartService
	Checkout service.CheckoutService
	Order    service.OrderService
}

func NewServer(cfg config.Auth, db *gorm.DB, services Services) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	branchRepo := repository.NewBranchRepository(db)

	authHandler := handler.NewAuthHandler(services.Auth)
	catalogHandler := handler.NewCatalogHandler(catalogRepo, branchRepo)
	cartHandler := handler.NewCartHandler(services.Cart)
	orderHandler := handler.NewOrderHandler(services.Checkout, services.Order)
	profileHandler := handler.NewProfileHandler(userRepo)

	s := &Server{echo: e}
	s.setupRoutes(cfg, authHandler, catalogHandler, cartHandler, orderHandler, profileHandler, services.Auth)
	return s
}

func (s *Server) setupRoutes(
	cfg config.Auth,
	authHandler *handler.AuthHandler,
	catalogHandler *handler.CatalogHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	profileHandler *handler.ProfileHandler,
	authService service.AuthService,
) {
	api := s.echo.Group("/api/v1")

	api.GET("/health/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- public --------
	auth := api.Group("/auth")
	auth.POST("/register/", authHandler.Register)
	auth.POST("/verify/", authHandler.Verify)
	auth.POST("/token/refresh/", authHandler.Refresh)

	api.GET("/categories/", catalogHandler.ListCategories)
	api.GET("/products/", catalogHandler.ListProducts)
	api.GET("/branches/", catalogHandler.ListBranches)

	// -------- authenticated --------
	authed := api.Group("", middleware.Auth(authService))
	authed.GET("/users/profile/", profileHandler.Get)
	authed.PATCH("/users/profile/", profileHandler.Patch)

	authed.GET("/cart/", cartHandler.Get)
	authed.POST("/cart/items/", cartHandler.AddItem)
	authed.PATCH("/cart/items/:id/", cartHandler.SetItemQuantity)
	authed.DELETE("/cart/items/:id/", cartHandler.RemoveItem)

	authed.POST("/orders/checkout/", orderHandler.Checkout)
	authed.GET("/orders/history/", orderHandler.History)
	authed.GET("/orders/:id/", orderHandler.Get)
	authed.POST("/orders/:id/cancel/", orderHandler.Cancel)

	// -------- staff --------
	staff := api.Group("/staff", middleware.Staff(cfg.StaffToken))
	staff.PATCH("/orders/:id/status/", orderHandler.SetStatus)
}

// Handler exposes the echo engine for tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
