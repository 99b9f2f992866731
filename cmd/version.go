package cmd

import (
	"fmt"

	"github.com/bnema/regatta/internal/server"
	"github.com/spf13/cobra"
)

func NewVersionCommand(s *server.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short, _ := cmd.Flags().GetBool("short"); short {
				fmt.Println(s.Config.Build.BuildVersion)
				return
			}
			fmt.Printf("Regatta %s\n", s.Config.Build.BuildVersion)
			fmt.Printf("Commit: %s\n", s.Config.Build.BuildCommit)
			fmt.Printf("Built: %s\n", s.Config.Build.BuildDate)
		},
	}
	cmd.Flags().BoolP("short", "s", false, "Show only version number")
	return cmd
}
