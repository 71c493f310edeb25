package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/bucketsync/internal/config"
	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

type applyOptions struct {
	manifestPath string
}

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile every resource declared in a manifest",
		Long: `Reconcile every resource declared in a manifest, in order.

Connection fields left out of the manifest are taken from the flags and
environment. Processing stops at the first failing resource; the results
gathered so far are still printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := validateManifestPath(opts.manifestPath)
			if err != nil {
				return newCommandError("apply", "checking manifest path", err, "Pass an existing manifest file with -f.")
			}

			defaults, err := root.connection()
			if err != nil {
				return err
			}

			manifest, err := config.ParseManifest(path, defaults)
			if err != nil {
				return newCommandError("apply", fmt.Sprintf("loading manifest %s", path), err, suggestionFor(err))
			}

			if cmd.Flags().Changed("check") {
				manifest.Settings.CheckMode = root.check
			}
			if cmd.Flags().Changed("duplicates") || manifest.Settings.Duplicates == "" {
				manifest.Settings.Duplicates = root.duplicates
			}
			if cmd.Flags().Changed("timeout") || manifest.Settings.Timeout == 0 {
				manifest.Settings.Timeout = root.timeout
			}

			return execute(cmd, root, manifest.Connection, manifest.Runs(), true)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "file", "f", "", "Path to the manifest file")
	cmd.MarkFlagRequired("file") //nolint:errcheck

	return cmd
}

func validateManifestPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", syncerrors.NewValidationError("file", "manifest file is required", nil)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve manifest path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("manifest file does not exist: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("manifest path %s is a directory", abs)
	}

	return abs, nil
}
