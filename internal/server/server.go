package server

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/littlefidan/littlefidan-sub001/internal/handler"
	"github.com/littlefidan/littlefidan-sub001/internal/middleware"
	"github.com/littlefidan/littlefidan-sub001/internal/service"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	downloadHandler *handler.DownloadHandler
	webhookHandler  *handler.WebhookHandler
	jwtSecret       string
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

func NewServer(
	checkoutService service.CheckoutService,
	entitlementService service.EntitlementService,
	webhookService service.WebhookService,
	jwtSecret string,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(echomw.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		downloadHandler: handler.NewDownloadHandler(entitlementService),
		webhookHandler:  handler.NewWebhookHandler(webhookService),
		jwtSecret:       jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// Checkout works for guests too, so auth is optional there; the download
	// endpoint always requires a session.
	api.POST("/checkout", s.checkoutHandler.Checkout, middleware.OptionalAuth(s.jwtSecret))
	api.GET("/files/:id/download", s.downloadHandler.Download, middleware.Auth(s.jwtSecret))

	// Called by the payment provider, no session.
	api.POST("/webhooks/payment", s.webhookHandler.PaymentWebhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
