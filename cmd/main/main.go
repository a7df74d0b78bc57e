package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/BartekS5/WETL/internal/cli"
	"github.com/BartekS5/WETL/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debugf("no .env file found, using system environment variables")
	}
	if level := os.Getenv("WETL_LOG_LEVEL"); level != "" {
		logger.SetLevel(level)
	}

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
