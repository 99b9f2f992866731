package cmd

import (
	"fmt"

	"github.com/bnema/regatta/internal/common"
	"github.com/bnema/regatta/internal/server"
	"github.com/spf13/cobra"

	_ "github.com/joho/godotenv/autoload"
)

var rootCmd = &cobra.Command{
	Use:   "regatta",
	Short: "Regatta - Registry Gateway & Browser",
	Long: `Regatta is a gateway between a browser-based viewer and an
OCI/Docker Distribution registry: it forwards requests upstream with
credentials stripped, recovers from transient failures, resolves tags to
content-addressed manifests and deletes tags in resolve-then-delete batches.`,
}

func InitializeCommands(s *server.App) {
	rootCmd.AddCommand(NewServeCommand(s))
	rootCmd.AddCommand(NewVersionCommand(s))
}

func Execute(s *server.App) {
	InitializeCommands(s)
	cobra.CheckErr(rootCmd.Execute())
}

func ExecuteCLI(build, commit, date string) {
	buildInfo := &common.BuildConfig{
		BuildVersion: build,
		BuildCommit:  commit,
		BuildDate:    date,
	}

	s, err := server.NewServerApp(buildInfo)
	if err != nil {
		fmt.Println("Error initializing app:", err)
		return
	}

	Execute(s)
}
