package main

import (
	"fmt"
	"os"

	"github.com/mwantia/gosort/cmd/gosort/cli"
	"github.com/mwantia/gosort/cmd/gosort/cli/client"
	"github.com/mwantia/gosort/cmd/gosort/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(server.NewAgentCommand())
	root.AddCommand(server.NewConfigCommand())

	root.AddCommand(client.NewGroupCommand())
	root.AddCommand(client.NewHistoryCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
