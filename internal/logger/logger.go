package logger

import (
	"go.uber.org/zap"

	"github.com/mkrasilnikov/foodgram/backend/config"
)

// New builds the process-wide zap logger for the current environment.
func New() (*zap.Logger, error) {
	if config.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
