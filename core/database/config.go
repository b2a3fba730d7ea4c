package database

import "github.com/m3rciful/maxbot/core/config"

// Config is the database section of the core configuration.
type Config = config.DatabaseConfig
