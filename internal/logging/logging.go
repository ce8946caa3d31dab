package logging

import "go.uber.org/zap"

// New builds the process logger. Production emits JSON, anything else the
// human readable development encoder.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
