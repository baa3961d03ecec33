// Package logging builds the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a sugared logger. Debug mode switches to the development
// encoder with DEBUG level enabled.
func New(debug bool) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		logger, err = cfg.Build()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
