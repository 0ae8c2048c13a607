package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stackit.dev/rebaser/internal/config"
	"stackit.dev/rebaser/internal/runtime"
)

// newConfigCmd creates the config command
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get and set repository configuration",
		Long: `Get and set repository configuration values stored in .git/rebaser.yml.

Keys: date_mode, message, log_file

Examples:
  rebaser config get date_mode
  rebaser config set date_mode committer-keep-author-keep
  rebaser config set log_file default`,
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

// newConfigGetCmd creates the config get command
func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				value, err := configField(ctx.Config, args[0])
				if err != nil {
					return err
				}
				ctx.Splog.Info("%s", *value)
				return nil
			})
		},
	}
}

// newConfigSetCmd creates the config set command
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx *runtime.Context) error {
				key, value := args[0], args[1]
				field, err := configField(ctx.Config, key)
				if err != nil {
					return err
				}
				*field = value
				if err := config.SaveRepoConfig(ctx.RepoRoot, ctx.Config); err != nil {
					return fmt.Errorf("failed to set %s: %w", key, err)
				}
				ctx.Splog.Info("Set %s to: %s", key, value)
				return nil
			})
		},
	}
}

func configField(cfg *config.RepoConfig, key string) (*string, error) {
	switch key {
	case "date_mode":
		return &cfg.DateMode, nil
	case "message":
		return &cfg.Message, nil
	case "log_file":
		return &cfg.LogFile, nil
	default:
		return nil, fmt.Errorf("unknown configuration key: %s", key)
	}
}
