package server

import (
	"time"

	"github.com/IamMattHenry/hris-sub000/internal/audit"
	"github.com/IamMattHenry/hris-sub000/internal/auth"
	"github.com/IamMattHenry/hris-sub000/internal/recovery"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App, recoveryHandler *recovery.Handler, auditHandler *audit.Handler) {
	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Credential recovery API is running",
		})
	})

	// ==========================================
	// AUTH ROUTES (No authentication required)
	// ==========================================
	// Per-IP cap on the whole group; /verify-otp in particular is the
	// code-guessing surface and must not take unbounded request volume.
	authGroup := app.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.LoginHandler)
	authGroup.Post("/forgot-password", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 15 * time.Minute,
	}), recoveryHandler.ForgotPasswordHandler)
	authGroup.Post("/verify-otp", recoveryHandler.VerifyOTPHandler)
	authGroup.Post("/reset-password", recoveryHandler.ResetPasswordHandler)

	// ==========================================
	// AUDIT LOG (Authenticated)
	// ==========================================
	auditGroup := app.Group("/audit")
	auditGroup.Use(auth.JWTProtected())
	auditGroup.Get("/", auditHandler.ListHandler)
}
