package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/bucketsync/internal/config"
	"github.com/alexisbeaulieu97/bucketsync/internal/model"
)

type environmentOptions struct {
	name    string
	envType string
	state   string
}

func newEnvironmentCmd(root *rootFlags) *cobra.Command {
	opts := &environmentOptions{}

	cmd := &cobra.Command{
		Use:   "environment",
		Short: "Ensure a deployment environment exists",
		Long: `Ensure a deployment environment exists.

An environment that already exists is left untouched, whatever its type.
Environments are never deleted.`,
		Example: `  bucketsync environment --workspace acme --repo-slug api --name staging --type Staging`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := root.connection()
			if err != nil {
				return err
			}

			run := config.Run{
				Connection: conn,
				Settings:   root.settings(),
				Resource: config.Resource{
					Kind: string(model.KindEnvironment),
					Environment: &config.Environment{
						Name:  opts.name,
						Type:  opts.envType,
						State: opts.state,
					},
				},
			}
			return execute(cmd, root, conn, []config.Run{run}, false)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Environment name")
	cmd.Flags().StringVar(&opts.envType, "type", "", "Environment type: Test, Staging or Production")
	cmd.Flags().StringVar(&opts.state, "state", string(model.StatePresent), "Desired state (only present has an effect)")
	cmd.MarkFlagRequired("name") //nolint:errcheck
	cmd.MarkFlagRequired("type") //nolint:errcheck

	return cmd
}
