// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/zen-systems/erpassist/pkg/assist"
)

// Turner runs one help-desk turn.
type Turner interface {
	Run(ctx context.Context, question string) (assist.TurnState, error)
}

// ImageAnalyzer diagnoses an uploaded screenshot.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, data []byte, question string) (string, error)
}

// Options configures the HTTP surface.
type Options struct {
	ImageDir    string
	URLPrefix   string
	CORSOrigins []string
	BodyLimitMB int
	Metrics     http.Handler
	Logger      *zap.Logger
}

// Server wraps the fiber app.
type Server struct {
	app      *fiber.App
	turns    Turner
	vision   ImageAnalyzer
	validate *validator.Validate
	log      *zap.Logger
}

// New builds the app and registers routes.
func New(turns Turner, vision ImageAnalyzer, opts Options) *Server {
	if opts.BodyLimitMB <= 0 {
		opts.BodyLimitMB = 10
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             opts.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	origins := "*"
	if len(opts.CORSOrigins) > 0 {
		origins = strings.Join(opts.CORSOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(otelfiber.Middleware())

	s := &Server{
		app:      app,
		turns:    turns,
		vision:   vision,
		validate: validator.New(),
		log:      opts.Logger,
	}
	app.Use(s.requestLogger)

	if opts.ImageDir != "" {
		prefix := opts.URLPrefix
		if prefix == "" {
			prefix = "/static/images"
		}
		app.Static(prefix, opts.ImageDir)
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics))
	}
	app.Post("/chat", s.chat)
	app.Post("/analyze_image", s.analyzeImage)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info("server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}

func errorBody(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *Server) validationError(c *fiber.Ctx, err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return errorBody(c, fiber.StatusBadRequest, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errorBody(c, fiber.StatusBadRequest, err.Error())
}
