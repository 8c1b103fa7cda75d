package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute runs the command line. Errors the session store already reported
// to the user are not printed twice.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	root := newRootCmd(&rootOptions{in: in, out: out, errOut: errOut})
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(errOut, "error: %v\n", err) //nolint:errcheck
	}
	return err
}

type rootOptions struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	apiURL   string
	logLevel string
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "aide",
		Short: "Terminal client for the AI executive assistant",
		Long: `aide is a terminal client for the AI executive assistant: inbox triage,
calendar, analytics, integrations and credits.

Run without arguments to open the interactive client.

Environment Variables:
  AIDE_API_URL                  Backend API URL (default: ` + "http://localhost:8000" + `)
  AIDE_HOME                     Config, token and log directory (default: ~/.aide)
  AIDE_TOKEN                    Use this token for the process instead of the stored one
  AIDE_STRIPE_PUBLISHABLE_KEY   Payment provider publishable key
  AIDE_HTTP_TIMEOUT             Per-request timeout (e.g. 30s)
  LOG_LEVEL, LOG_FORMAT         File log level (debug|info|warn|error) and format (text|json)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Backend API URL (overrides AIDE_API_URL)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newForgotPasswordCmd(opts),
		newVerifyEmailCmd(opts),
		newResetPasswordCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(opts.out, "aide "+version) //nolint:errcheck
		},
	}
}
