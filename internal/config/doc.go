// Package config loads the service configuration with viper from defaults,
// an optional YAML file and SCRY_-prefixed environment variables, then checks
// it with validator struct tags. Scheduler overrides are mapped onto
// srs.ParamsConfig by the server command.
package config
