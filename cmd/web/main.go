package main

import (
	"github.com/joho/godotenv"

	"github.com/hanneswrnr/glasschadenmelden/internal/app"
	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found, relying on environment")
	}

	app.Run()
}
