// Package config handles loading of environment configuration and job files.
package config

import (
	"errors"
	"os"
)

// Config holds connection settings, loaded from environment variables
// (populated from .env in cmd/main).
type Config struct {
	WarehouseConnString string
	MongoConnString     string
}

// LoadConfig reads application settings from the environment. The Mongo
// connection string is optional; it is only required for mongo-sourced jobs
// and is checked at that point.
func LoadConfig() (*Config, error) {
	warehouseConn := os.Getenv("WAREHOUSE_CONNECTION_STRING")
	if warehouseConn == "" {
		return nil, errors.New("WAREHOUSE_CONNECTION_STRING environment variable not set")
	}

	return &Config{
		WarehouseConnString: warehouseConn,
		MongoConnString:     os.Getenv("MONGO_CONNECTION_STRING"),
	}, nil
}
