package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"dispatch-board/database"
	"dispatch-board/database/seeders"
	"dispatch-board/logger"
	departureModel "dispatch-board/models/departure"
	"dispatch-board/routes"
	"dispatch-board/services/live"
	"dispatch-board/services/statusclock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	app := fiber.New(fiber.Config{
		ReadBufferSize:  32768, // 32KB read buffer
		WriteBufferSize: 32768, // 32KB write buffer
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		BodyLimit:       50 * 1024 * 1024, // 50MB body limit, spreadsheet uploads
	})
	env := godotenv.Load()
	if env != nil {
		logger.Error("Error loading .env file", env)
		fmt.Println("Error loading .env file", env)
	}
	// Use your custom logger to print a success message.
	logger.Success("Server is running on ip: " + os.Getenv("APP_HOST") + " port: " + os.Getenv("APP_PORT") +
		"\n\t\t\t\t\t\t******************************************************************************************\n")

	// Initialize database with new consolidated db.go
	db, err := database.InitDB()
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return
	}

	if os.Getenv("SEED_DEPARTURES") == "true" {
		seeders.SeedDepartures(db)
	}

	// One hub per process: every board subscriber sees the same ordered
	// snapshot stream.
	hub := live.NewHub(func() ([]departureModel.Departure, error) {
		return departureModel.List(db)
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("FRONTEND_URL"),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// Use new consolidated routes
	routes.SetupRoutes(app, db, hub)

	// Background status clock: Waiting/Loading trucks past their collection
	// time are swept to Delayed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go statusclock.New(db, hub, statusclock.ConfigFromEnv()).Run(ctx)

	app_host := os.Getenv("APP_HOST")
	app_port := os.Getenv("APP_PORT")
	app.Listen(app_host + ":" + app_port)
}
