// Package config handles loading and validating Gray Logic Home configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with GRAYLOGIC_* environment variables
//   - Validation of required fields (all problems reported at once)
//
// Secrets (MQTT password, InfluxDB token, JWT secret, function API key)
// should be supplied through the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name, cfg.AutoLockDelay())
package config
