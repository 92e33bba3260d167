package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the hub runtime configuration, populated from the environment.
type Config struct {
	// ServerListenAddr specifies the network address the HTTP server listens on.
	ServerListenAddr string `env:"SERVER_LISTEN_ADDR" envDefault:":7100"`
	// DataDir is the directory holding the addon registry database.
	DataDir string `env:"DATA_DIR" envDefault:".data"`
	// ServiceEnvironment names the deployment environment ("lcl", "dk", "prd").
	ServiceEnvironment string `env:"SERVICE_ENVIRONMENT" envDefault:"lcl"`
	// OTLPExporterEndpoint is the OTLP gRPC collector address. Leave empty to
	// run without exporting telemetry.
	OTLPExporterEndpoint string `env:"OTLP_EXPORTER_ENDPOINT"`
	// EventsChannel is the websocket channel addon events are broadcast on.
	EventsChannel string `env:"EVENTS_CHANNEL" envDefault:"addons"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to env.Parse: %w", err)
	}

	return cfg, nil
}
