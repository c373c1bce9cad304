package server

import (
	"log"

	"capec-chatbot-be/internal/bootstrap"
	"capec-chatbot-be/internal/config"
	ws "capec-chatbot-be/internal/websocket"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
)

type Server struct {
	app *fiber.App
	cfg *config.Config
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Use(otelfiber.Middleware())

	registerRoutes(app, cfg, container)

	return &Server{app: app, cfg: cfg}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on ws://%s:%s/ws", s.cfg.App.Host, s.cfg.App.Port)
	return s.app.Listen(s.cfg.App.Host + ":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"status":      "ok",
			"connections": c.Admission.Count(),
		})
	})

	// Upgrade gate: anything else on /ws is a plain 426.
	app.Use("/ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws", websocket.New(ws.ServeWs(
		c.Admission,
		c.Router,
		cfg.Websocket.HeartbeatInterval,
		cfg.Websocket.RequestTimeout,
		c.Logger,
	)))
}
