package repositories

import (
	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/fleet"
)

// LoggerProvider supplies the logger configured by the application root.
type LoggerProvider func() *zap.Logger

// EngineProvider supplies the repository engine once configuration is loaded.
type EngineProvider func() (*fleet.Engine, error)
