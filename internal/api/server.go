package api

import (
	"errors"
	"strings"

	"leetscore/internal/api/handlers"
	"leetscore/internal/config"
	"leetscore/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberws "github.com/gofiber/websocket/v2"
)

// Options configures NewApp. Storage backs the rate limiter and may be nil,
// in which case counters live in process memory. Stream may be nil.
type Options struct {
	CORS       config.CORSConfig
	RateLimit  config.RateLimitConfig
	Storage    fiber.Storage
	RequestLog bool
	Scores     *handlers.ScoreHandler
	Stream     *websocket.Stream
}

// NewApp builds the fiber application with middleware and routes
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "LeetCode Score Service",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	if opts.RequestLog {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	origins := strings.Join(opts.CORS.Origins, ",")
	// fiber refuses credentials with a wildcard origin
	credentials := !strings.Contains(origins, "*")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,DELETE",
		AllowHeaders:     "Content-Type, Authorization, X-Requested-With",
		AllowCredentials: credentials,
	}))
	if opts.RateLimit.Max > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit.Max,
			Expiration: opts.RateLimit.Window,
			Storage:    opts.Storage,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests",
				})
			},
		}))
	}

	h := opts.Scores
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Welcome to the LeetCode Backend!")
	})
	app.Get("/health", h.HealthCheck)

	api := app.Group("/api")
	api.Get("/user/:username", h.GetUserScore)
	api.Post("/users/scores", h.ScoreUsers)
	api.Get("/problems/:username", h.GetProblemStats)
	api.Get("/contest/:username", h.GetContest)

	if opts.Stream != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if fiberws.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/scores", fiberws.New(opts.Stream.Serve))
	}

	return app
}

// errorHandler handles errors no route handler turned into a response
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   "Request failed",
		"message": err.Error(),
	})
}
