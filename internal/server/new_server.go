package server

import (
	"time"

	"github.com/bnema/regatta/internal/common"
	"github.com/bnema/regatta/internal/gateway"
	"github.com/charmbracelet/log"
)

func NewServerApp(buildConfig *common.BuildConfig) (*App, error) {
	// Initialize AppConfig
	config := common.Config{
		Build: *buildConfig,
	}

	log.Info("Starting Regatta server", "version", config.Build.BuildVersion)

	_, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, err := gateway.NewClient(config.Registry.URL, gateway.Options{
		MaxRetries:    config.Registry.MaxRetries,
		RetryInterval: config.Registry.RetryInterval.Std(),
		Timeout:       config.Registry.RequestTimeout.Std(),
	})
	if err != nil {
		log.Fatalf("Failed to create registry gateway: %v", err)
	}

	a := &App{
		Config:    config,
		Gateway:   client,
		StartTime: time.Now(),
	}

	return a, nil
}
