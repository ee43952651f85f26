package server

import (
	"github.com/IamMattHenry/hris-sub000/internal/audit"
	"github.com/IamMattHenry/hris-sub000/internal/config"
	"github.com/IamMattHenry/hris-sub000/internal/mailer"
	"github.com/IamMattHenry/hris-sub000/internal/recovery"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// New builds the fiber app. The sender is injected so tests can substitute
// a recorder for the SMTP mailer.
func New(db *gorm.DB, cfg *config.Config, sender mailer.Sender) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	sink := audit.NewSink(db)
	recoverySvc := recovery.NewService(db, cfg, sender, sink)

	SetupRoutes(app, recovery.NewHandler(db, recoverySvc), audit.NewHandler(sink))

	return app
}
