package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/scrap-exchange/internal/config"
	"github.com/shinyyama/scrap-exchange/internal/event"
	"github.com/shinyyama/scrap-exchange/internal/handler"
	"github.com/shinyyama/scrap-exchange/internal/media"
	"github.com/shinyyama/scrap-exchange/internal/metrics"
	appmw "github.com/shinyyama/scrap-exchange/internal/middleware"
	"github.com/shinyyama/scrap-exchange/internal/repository"
	"github.com/shinyyama/scrap-exchange/internal/service"
	"gorm.io/gorm"
)

// Deps are the collaborators that need external credentials. Zero values
// fall back to local behaviour: X-User-ID auth, passthrough image refs and
// no CO2 estimates.
type Deps struct {
	Auth      echo.MiddlewareFunc
	Images    media.Resolver
	CO2       service.CO2Estimator
	Now       func() time.Time
	Sha       string
	BuildTime string
}

type Server struct {
	e       *echo.Echo
	bus     *event.Bus
	sweeper *service.Sweeper
}

func New(cfg *config.Config, db *gorm.DB, deps Deps) *Server {
	metrics.Init()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(appmw.Metrics)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-User-ID"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "https" {
				return false, nil
			}
			return strings.HasSuffix(u.Hostname(), "vercel.app"), nil
		},
	}))

	auth := deps.Auth
	if auth == nil {
		auth = appmw.RequireDevUser
	}

	bus := event.NewBus(cfg.EventWorkers, cfg.EventQueueSize)

	listingRepo := repository.NewListingRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	transactor := repository.NewTransactor(db, listingRepo, txRepo)
	notifRepo := repository.NewNotificationRepository(db)
	payeeRepo := repository.NewPayeeRepository(db)

	notifSvc := service.NewNotificationService(notifRepo)
	bus.Subscribe(notifSvc.OnEvent)
	if deps.CO2 != nil {
		bus.Subscribe(service.NewCO2Recorder(listingRepo, deps.CO2))
	}

	sweeper := service.NewSweeper(txRepo, transactor, bus, service.SweeperOptions{
		Window:              cfg.ExpirationWindow,
		Timeout:             cfg.SweepTimeout,
		ResetPriceOnRelease: cfg.ResetPriceOnRelease,
		Now:                 deps.Now,
	})
	payeeSvc := service.NewPayeeService(payeeRepo)
	listingSvc := service.NewListingService(listingRepo, txRepo, sweeper, bus, deps.Now)
	purchaseSvc := service.NewPurchaseService(listingRepo, txRepo, transactor, payeeSvc, bus, service.PurchaseOptions{
		ResetPriceOnRelease: cfg.ResetPriceOnRelease,
		Now:                 deps.Now,
	})
	paymentSvc := service.NewPaymentService(txRepo, transactor, bus, deps.Now)
	viewSvc := service.NewViewService(listingRepo, txRepo)

	listingHandler := handler.NewListingHandler(listingSvc, deps.Images)
	purchaseHandler := handler.NewPurchaseHandler(purchaseSvc, paymentSvc)
	viewHandler := handler.NewViewHandler(viewSvc, deps.Images)
	payeeHandler := handler.NewPayeeHandler(payeeSvc)
	notifHandler := handler.NewNotificationHandler(notifSvc)
	adminHandler := handler.NewAdminHandler(sweeper, deps.Now)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    deps.Sha,
			"build_time": deps.BuildTime,
		})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api")
	api.GET("/listings/:id", listingHandler.Get)
	api.GET("/stats", listingHandler.Stats)

	authed := api.Group("", auth)
	authed.POST("/listings", listingHandler.Create)
	authed.PUT("/listings/:id", listingHandler.Update)
	authed.POST("/listings/:id/purchase", purchaseHandler.Initiate)
	authed.PATCH("/listings/:id/purchase", purchaseHandler.ChangePaymentMethod)
	authed.POST("/listings/:id/cancel", purchaseHandler.Cancel)
	authed.POST("/transactions/:id/complete", purchaseHandler.Complete)
	authed.GET("/marketplace", viewHandler.Marketplace)
	authed.GET("/me/listings", listingHandler.ListMine)
	authed.GET("/me/purchases/pending", viewHandler.Pending)
	authed.GET("/me/purchases/completed", viewHandler.Completed)
	authed.GET("/me/transactions", viewHandler.History)
	authed.GET("/listings/:id/transactions", viewHandler.ListingTransactions)
	authed.GET("/me/payee", payeeHandler.Get)
	authed.PUT("/me/payee", payeeHandler.Put)
	authed.GET("/me/notifications", notifHandler.List)
	authed.POST("/me/notifications/read", notifHandler.MarkAllRead)

	admin := authed.Group("/admin", appmw.RequireAdmin(cfg.AdminUIDs))
	admin.POST("/sweep", adminHandler.Sweep)

	return &Server{e: e, bus: bus, sweeper: sweeper}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

// RunSweeper blocks, sweeping every interval until ctx is done.
func (s *Server) RunSweeper(ctx context.Context, interval time.Duration) {
	s.sweeper.Run(ctx, interval)
}

// Shutdown stops accepting requests, waits for background sweeps and drains
// queued events.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.e.Shutdown(ctx)
	s.sweeper.Wait()
	s.bus.Close()
	return err
}
