// Package service holds the lifecycle contract shared by long-running
// components and a small base with component-tagged logging.
package service

import (
	"context"

	"github.com/PAMF2/irrad-IA/internal/logger"
)

// Service is a component with an explicit start/stop lifecycle
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServiceBase provides a base implementation for services
type ServiceBase struct {
	name   string
	logger *logger.Logger
}

// NewServiceBase creates a new service base
func NewServiceBase(name string, log *logger.Logger) *ServiceBase {
	return &ServiceBase{
		name:   name,
		logger: log,
	}
}

// Name returns the service name
func (sb *ServiceBase) Name() string {
	return sb.name
}

// Logger returns the service logger
func (sb *ServiceBase) Logger() *logger.Logger {
	return sb.logger
}

// LogInfo logs an info message
func (sb *ServiceBase) LogInfo(msg string, fields ...interface{}) {
	sb.logger.Info(msg, append([]interface{}{"service", sb.name}, fields...)...)
}

// LogWarn logs a warning
func (sb *ServiceBase) LogWarn(msg string, fields ...interface{}) {
	sb.logger.Warn(msg, append([]interface{}{"service", sb.name}, fields...)...)
}

// LogError logs an error message
func (sb *ServiceBase) LogError(msg string, err error, fields ...interface{}) {
	allFields := append([]interface{}{"service", sb.name, "error", err}, fields...)
	sb.logger.Error(msg, allFields...)
}

// LogDebug logs a debug message
func (sb *ServiceBase) LogDebug(msg string, fields ...interface{}) {
	sb.logger.Debug(msg, append([]interface{}{"service", sb.name}, fields...)...)
}
