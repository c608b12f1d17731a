package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"visa-consult-api/config"
	"visa-consult-api/controllers"
	"visa-consult-api/middleware"
	"visa-consult-api/routes"
	"visa-consult-api/services"
	"visa-consult-api/utils"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database
	db, err := config.OpenDB("")
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer config.CloseDB(db)

	// Outbound mail: real SMTP when configured, log-only otherwise
	smtp := config.LoadSMTPConfig()
	send := services.LogOnlyMail
	if smtp.Configured() {
		send = smtp.SendMail
	} else {
		log.Println("SMTP not configured, notifications will be logged only")
	}
	notifier := services.NewNotifier(send, 128)
	defer notifier.Close()

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware())

	// Register /logs route early (before 404 catch-all in SetupRoutes)
	router.GET("/logs", func(c *gin.Context) {
		accessToken := os.Getenv("LOG_ACCESS_TOKEN")
		if accessToken == "" || c.Query("token") != accessToken {
			c.JSON(401, gin.H{"error": "Unauthorized"})
			return
		}

		logData, err := os.ReadFile(config.LogFilePath())
		if err != nil {
			c.JSON(500, gin.H{"error": "Unable to read log"})
			return
		}

		c.Data(200, "text/plain; charset=utf-8", logData)
	})

	// Create upload directory if not exists
	uploadPath := utils.UploadBasePath()
	if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create upload directory: %v", err)
	}

	adminEmail := smtp.AdminEmail

	// Setup routes
	routes.SetupRoutes(router, routes.Controllers{
		Visa:       controllers.NewVisaController(db, notifier, adminEmail, uploadPath),
		Contact:    controllers.NewContactController(db, notifier, adminEmail),
		Feedback:   controllers.NewFeedbackController(db, notifier, adminEmail),
		Newsletter: controllers.NewNewsletterController(db, notifier),
		Health:     controllers.NewHealthController(db),
	})

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if ginMode == "release" {
		log.Printf("Running in production mode")
	} else {
		log.Printf("Running in development mode")
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
