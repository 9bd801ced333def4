// Package logging provides structured logging for Gray Logic Home.
//
// It wraps log/slog so every component logs the same way: JSON in
// production, text during development, and the service and version
// attributes on every entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Component("autolock").Info("countdown armed", "user_id", userID)
//
// Never log bearer tokens, MQTT passwords or function API keys.
package logging
