package main

import (
	"errors"
	"os"

	cmd "github.com/MrSnakeDoc/otawatch/internal"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/middleware"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// flag parsing fails before the root pre-run configures the logger
		if !logger.Ready() {
			logger.ConfigureLoggerFromFlags()
		}
		if !errors.Is(err, middleware.ErrLogged) {
			logger.LogError("%s", err.Error())
		}
		os.Exit(1)
	}
}
