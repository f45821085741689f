// FILE: internal/http/handler.go
package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"puzzlefish/internal/core"
	"puzzlefish/internal/service"
	"puzzlefish/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

const (
	defaultTopLimit = 50
	maxTopLimit     = 200
)

type HTTPHandler struct {
	svc *service.Service
}

func NewHTTPHandler(svc *service.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func NewFiberApp(svc *service.Service, devMode bool) *fiber.App {
	// Create handler
	h := NewHTTPHandler(svc)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	// API v1 routes with standard rate limiting
	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	// Content-Type validation for POST requests
	api.Use(contentTypeValidator)

	// Middleware validation for sanitization
	api.Use(validationMiddleware)

	api.Get("/players/:userId/puzzles", h.SearchPuzzles)
	api.Get("/puzzles", h.TopPuzzles)
	api.Post("/puzzles/:puzzleId/vote", h.Vote)

	return app
}

// contentTypeValidator ensures POST requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		// Map HTTP status to error codes
		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrPuzzleNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
	})
}

// SearchPuzzles returns the puzzles synthesized for a player,
// triggering a background refresh when the stored data is stale.
func (h *HTTPHandler) SearchPuzzles(c *fiber.Ctx) error {
	userID := c.Params("userId")

	if !isValidUserID(userID) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid user ID format",
			Code:    core.ErrInvalidRequest,
			Details: "user ID must be 2-30 characters of letters, digits, underscore or hyphen",
		})
	}

	result, err := h.svc.Search(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "search failed",
			Code:  core.ErrInternalError,
		})
	}

	return c.JSON(core.PuzzleListResponse{
		Fetching: result.Fetching,
		Message:  result.Message,
		Puzzles:  toPuzzleViews(result.Puzzles),
		Total:    result.Total,
	})
}

// TopPuzzles returns the highest voted puzzles across all players
func (h *HTTPHandler) TopPuzzles(c *fiber.Ctx) error {
	limit := defaultTopLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "invalid limit",
				Code:    core.ErrInvalidRequest,
				Details: "limit must be a positive integer",
			})
		}
		limit = parsed
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	puzzles, err := h.svc.TopPuzzles(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "listing failed",
			Code:  core.ErrInternalError,
		})
	}

	views := toPuzzleViews(puzzles)
	return c.JSON(core.PuzzleListResponse{
		Puzzles: views,
		Total:   len(views),
	})
}

// Vote applies an up or down vote to a puzzle on behalf of a user.
// Repeating the same vote is a no-op, voting the other way flips it.
func (h *HTTPHandler) Vote(c *fiber.Ctx) error {
	puzzleID := c.Params("puzzleId")

	if !isValidPuzzleID(puzzleID) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid puzzle ID format",
			Code:    core.ErrInvalidRequest,
			Details: "puzzle ID must be <gameId>_<ply>",
		})
	}

	// Ensure middleware validation ran
	validated, ok := c.Locals("validated").(bool)
	if !ok || !validated {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation bypass detected",
			Code:  core.ErrInternalError,
		})
	}

	// Retrieve validated parsed body
	validatedBody := c.Locals("validatedBody")
	if validatedBody == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation data missing",
			Code:  core.ErrInternalError,
		})
	}
	req := *(validatedBody.(*core.VoteRequest))

	votes, err := h.svc.Vote(puzzleID, req.UserID, *req.Up)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
				Error: "puzzle not found",
				Code:  core.ErrPuzzleNotFound,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "vote failed",
			Code:  core.ErrInternalError,
		})
	}

	return c.JSON(core.VoteResponse{
		PuzzleID: puzzleID,
		Votes:    votes,
	})
}

func toPuzzleViews(records []storage.PuzzleRecord) []core.PuzzleView {
	views := make([]core.PuzzleView, 0, len(records))
	for _, r := range records {
		views = append(views, core.PuzzleView{
			ID:              r.PuzzleID,
			GameID:          r.GameID,
			BoardState:      r.BoardState,
			BoardStateSafe:  strings.ReplaceAll(r.BoardState, " ", "_"),
			SideToMove:      r.Orientation,
			URL:             r.URL,
			Ply:             r.PlyNumber,
			MoveLabel:       r.MoveLabel,
			MoveSource:      r.MoveSource,
			MoveDestination: r.MoveDestination,
			Votes:           r.Votes,
		})
	}
	return views
}
