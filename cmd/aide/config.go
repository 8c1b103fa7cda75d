package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/naveenspark/aide/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change client settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the resolved settings",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("config: marshal: %w", err)
				}
				fmt.Fprintf(opts.out, "# %s\n%s", cfg.Home, data) //nolint:errcheck
				if cfg.Token != "" {
					fmt.Fprintln(opts.out, "# token: from AIDE_TOKEN") //nolint:errcheck
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Persist a setting (api_url, stripe_publishable_key, http_timeout, log_level, log_format)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setConfig(cmd.Context(), opts, args[0], args[1])
			},
		},
	)
	return cmd
}

func setConfig(_ context.Context, opts *rootOptions, key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	switch key {
	case "api_url":
		cfg.APIURL = strings.TrimRight(value, "/")
	case "stripe_publishable_key":
		cfg.StripePublishableKey = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	case "log_level":
		cfg.LogLevel = value
	case "log_format":
		cfg.LogFormat = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintf(opts.out, "%s = %s\n", key, value) //nolint:errcheck
	return nil
}
