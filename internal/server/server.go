// Package server exposes classification, feedback and retraining over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
	"github.com/Veraticus/calcbert/internal/retrain"
	"github.com/Veraticus/calcbert/internal/service"
)

const bodyLimit = 1 << 20

// Classifier produces fused predictions.
type Classifier interface {
	Classify(ctx context.Context, text string) (*model.FusedResult, error)
}

// Retrainer runs and reports retrains.
type Retrainer interface {
	Run(ctx context.Context, req retrain.Request) (retrain.Result, error)
	LastResult() (retrain.Result, bool)
	Sync() bool
}

// ModelStatus reports the live TF-IDF model.
type ModelStatus interface {
	Ready() bool
	Labels() []string
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Feedback   service.FeedbackStore
	Classifier Classifier
	Retrainer  Retrainer
	Models     ModelStatus
}

// Server wraps the fiber application.
type Server struct {
	app  *fiber.App
	deps Deps
}

// New builds the application and registers all routes.
func New(deps Deps, allowedOrigins []string) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "calcbert",
		BodyLimit:             bodyLimit,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if len(allowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(allowedOrigins, ","),
			AllowCredentials: !slices.Contains(allowedOrigins, "*"),
			AllowHeaders:     "Origin, Content-Type, Accept",
			AllowMethods:     "GET, POST, OPTIONS",
		}))
	}

	s := &Server{app: app, deps: deps}
	s.registerRoutes()
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutting down server")
		return s.app.Shutdown()
	}
}

func (s *Server) registerRoutes() {
	s.app.Post("/feedback", s.postFeedback)
	s.app.Get("/feedback/count", s.getFeedbackCount)
	s.app.Post("/retrain", s.postRetrain)
	s.app.Get("/retrain/status", s.getRetrainStatus)
	s.app.Post("/predict", s.postPredict)
	s.app.Get("/health", s.getHealth)
}

// errorHandler maps domain errors to status codes with a {"detail": ...} body.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrUnsupportedModel):
		code = fiber.StatusBadRequest
	case errors.Is(err, common.ErrRetrainInProgress):
		code = fiber.StatusConflict
	case errors.Is(err, common.ErrNotFound):
		code = fiber.StatusNotFound
	}

	if code >= fiber.StatusInternalServerError {
		common.LogError(err, "Request failed", common.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		})
	}

	return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
}
