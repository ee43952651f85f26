package main

import (
	"log"
	"os"
	"time"

	"github.com/IamMattHenry/hris-sub000/internal/config"
	"github.com/IamMattHenry/hris-sub000/internal/database"
	"github.com/IamMattHenry/hris-sub000/internal/mailer"
	"github.com/IamMattHenry/hris-sub000/internal/models"
	"github.com/IamMattHenry/hris-sub000/internal/server"
	"github.com/IamMattHenry/hris-sub000/internal/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.ValidateJWTSecret(); err != nil {
		log.Fatal("❌ JWT Configuration Error: ", err)
	}
	log.Println("✅ JWT secret validated")

	requiredEnvVars := map[string]string{
		"DB_HOST":     os.Getenv("DB_HOST"),
		"DB_NAME":     os.Getenv("DB_NAME"),
		"DB_USER":     os.Getenv("DB_USER"),
		"DB_PASSWORD": os.Getenv("DB_PASSWORD"),
	}

	for key, value := range requiredEnvVars {
		if value == "" {
			log.Fatalf("❌ Required environment variable %s is not set", key)
		}
	}
	log.Println("✅ Required environment variables validated")

	// ========== DATABASE SETUP ==========
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("❌ Database connection failed:", err)
	}
	database.DB = db

	if err := database.Migrate(db); err != nil {
		log.Fatal("❌ Migration failed: ", err)
	}
	log.Println("✅ Database migrated successfully")

	if err := database.RunMigrations(db); err != nil {
		log.Printf("⚠️  SQL migrations failed: %v", err)
		log.Println("⚠️  Recovery lookups may be slower without the partial indexes")
	} else {
		log.Println("✅ SQL migrations completed successfully")
	}

	// ========== RETENTION JOB ==========
	// The recovery flow itself never deletes rows; this sweep is the
	// retention policy, removing rows long past their expiry.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		retention := 24 * time.Hour

		for range ticker.C {
			cutoff := time.Now().Add(-retention)

			result := database.DB.Where("expires_at < ?", cutoff).Delete(&models.PasswordResetOTP{})
			if result.RowsAffected > 0 {
				log.Printf("🧹 Cleaned up %d old recovery codes", result.RowsAffected)
			}

			result = database.DB.Where("expires_at < ?", cutoff).Delete(&models.ResetToken{})
			if result.RowsAffected > 0 {
				log.Printf("🧹 Cleaned up %d old reset tokens", result.RowsAffected)
			}
		}
	}()

	// ========== START SERVER ==========
	app := server.New(db, cfg, mailer.New(cfg))

	log.Printf("🚀 Credential recovery server starting on %s", cfg.ServerAddr)
	log.Printf("🔐 OTP TTL: %s | Max attempts: %d | Resend cooldown: %s | Token TTL: %s",
		cfg.OTPTTL, cfg.OTPMaxAttempts, cfg.ResendCooldown, cfg.ResetTokenTTL)

	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}
