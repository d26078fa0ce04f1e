// Package logger provides a structured logging interface for the Zhihu
// exporter.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with
// support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional file output alongside the console
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "zhexport/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File:  "zhexport.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.GetLogger().Info("export started")
//	logger.WithField("collection", "123456789").Info("walking items")
//	logger.WithError(err).Error("failed to render item")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "exporter").
//	    WithField("collection", id)
//
//	// Use structured logging
//	log.InfoWithFields("item exported", map[string]interface{}{
//	    "file":     "某个回答 - 作者.md",
//	    "kind":     "answer",
//	    "duration": time.Second * 3,
//	})
package logger
