package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/bnema/regatta/internal/httpserve"
	"github.com/bnema/regatta/internal/server"
	"github.com/bnema/regatta/pkg/logger"
)

func NewServeCommand(s *server.App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the regatta gateway server",
		Run: func(cmd *cobra.Command, args []string) {
			StartServer(s)
		},
	}
}

func StartServer(a *server.App) {
	logger.Info("Initializing HTTP server...")
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e = httpserve.RegisterRoutes(e, a)
	logger.Info("Routes registered")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting server",
			"port", a.Config.Http.Port,
			"registry", a.Config.Registry.URL)
		if err := e.Start(fmt.Sprintf(":%s", a.Config.Http.Port)); err != nil {
			if err.Error() != "http: Server closed" {
				logger.Error("Server error", "error", err)
			}
		}
	}()

	<-sigs
	logger.Info("Received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Shutting down server...")
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}
