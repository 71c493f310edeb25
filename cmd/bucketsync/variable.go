package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/bucketsync/internal/config"
	"github.com/alexisbeaulieu97/bucketsync/internal/model"
)

type variableOptions struct {
	name    string
	value   string
	secured bool
	state   string
}

func newVariableCmd(root *rootFlags) *cobra.Command {
	opts := &variableOptions{}

	cmd := &cobra.Command{
		Use:   "variable",
		Short: "Ensure a repository pipeline variable is present or absent",
		Example: `  bucketsync variable --workspace acme --repo-slug api --name API_URL --value https://api.example.com
  bucketsync variable --repo-path . --name DEPLOY_TOKEN --value "$TOKEN" --secured
  bucketsync variable --workspace acme --repo-slug api --name OLD --value x --state absent --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := root.connection()
			if err != nil {
				return err
			}

			run := config.Run{
				Connection: conn,
				Settings:   root.settings(),
				Resource: config.Resource{
					Kind: string(model.KindVariable),
					Variable: &config.Variable{
						Name:    opts.name,
						Value:   opts.value,
						Secured: opts.secured,
						State:   opts.state,
					},
				},
			}
			return execute(cmd, root, conn, []config.Run{run}, false)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Variable key")
	cmd.Flags().StringVar(&opts.value, "value", "", "Variable value")
	cmd.Flags().BoolVar(&opts.secured, "secured", false, "Store the value as a secured variable")
	cmd.Flags().StringVar(&opts.state, "state", string(model.StatePresent), "Desired state: present|absent")
	cmd.MarkFlagRequired("name")  //nolint:errcheck
	cmd.MarkFlagRequired("value") //nolint:errcheck

	return cmd
}
