package server

import (
	"fmt"
	"time"

	"github.com/bnema/regatta/internal/common"
	"github.com/bnema/regatta/internal/gateway"
	_ "github.com/joho/godotenv/autoload"
)

type App struct {
	Config    common.Config
	Gateway   *gateway.Client
	StartTime time.Time
}

// GetConfig returns the configuration
func (a *App) GetConfig() *common.Config {
	return &a.Config
}

func (a *App) IsDevEnvironment() bool {
	return a.Config.Build.GetRunEnv() == "dev"
}

func (a *App) GetUptime() string {
	uptime := time.Since(a.StartTime)
	return uptime.String()
}

// GetVersionstring returns the version of the app
func (a *App) GetVersionstring() string {
	return fmt.Sprint(a.Config.Build.BuildVersion)
}
