package server

import (
	"context"
	"fmt"

	"github.com/mwantia/gosort/internal/agent"
	"github.com/spf13/cobra"

	config "github.com/mwantia/gosort/internal/config/server"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Start the GoSort agent",
		Long: `Start the GoSort agent in the foreground.

The agent watches every directory referenced by a group and moves matching
files into the group's target directory. Send SIGHUP to reload the group
document without restarting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			agent := agent.NewAgent(cfg)
			if err := agent.Serve(context.Background()); err != nil {
				return err
			}

			return nil
		},
	}

	return cmd
}
