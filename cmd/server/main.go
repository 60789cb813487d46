package main

import (
	_ "github.com/malikcancode/Collaborative-To-Do-Board-Backend/docs"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/config"
	"github.com/malikcancode/Collaborative-To-Do-Board-Backend/internal/server"
)

// @title           Collaborative Task Board API
// @version         1.0
// @description     Shared boards with ordered lists and tasks, realtime updates and deadline reminders.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	s, err := server.Init(cfg, logger)
	if err != nil {
		logger.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
