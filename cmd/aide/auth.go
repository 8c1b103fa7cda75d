package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/naveenspark/aide/internal/oauthcallback"
	"github.com/naveenspark/aide/pkg/domain"
)

// command wires the client for a one-shot command and runs fn with it.
func command(ctx context.Context, opts *rootOptions, fn func(ctx context.Context, d *deps) error) error {
	n := &cliNotifier{out: opts.out, errOut: opts.errOut}
	d, err := setup(opts, n)
	if err != nil {
		return err
	}
	defer d.Close() //nolint:errcheck
	return n.reported(fn(ctx, d))
}

// readSecret reads one line from r, for --password-stdin.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt asks for whichever fields are still empty.
func prompt(fields ...promptField) error {
	var inputs []huh.Field
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		in := huh.NewInput().Title(f.title).Value(f.value)
		if f.secret {
			in = in.EchoMode(huh.EchoModePassword)
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(inputs...)).Run()
}

type promptField struct {
	title  string
	value  *string
	secret bool
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var (
		email         string
		passwordStdin bool
		provider      string
		oauthResult   string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password, or a Google/Microsoft account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command(cmd.Context(), opts, func(ctx context.Context, d *deps) error {
				d.store.Initialize(ctx)
				if oauthResult != "" {
					res, err := oauthcallback.ParsePasted(oauthResult)
					if err != nil {
						return fmt.Errorf("--oauth-result: %w", err)
					}
					_, err = d.store.CompleteOAuth(ctx, res.Token, res.Error)
					return err
				}
				if provider != "" {
					return loginWithProvider(ctx, opts, d, provider)
				}
				var password string
				if passwordStdin {
					p, err := readSecret(opts.in)
					if err != nil {
						return err
					}
					password = p
				}
				if err := prompt(
					promptField{title: "Email", value: &email},
					promptField{title: "Password", value: &password, secret: true},
				); err != nil {
					return err
				}
				_, err := d.store.Login(ctx, domain.Credentials{Email: strings.TrimSpace(email), Password: password})
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&provider, "provider", "", "Sign in with a provider instead (google or microsoft)")
	cmd.Flags().StringVar(&oauthResult, "oauth-result", "", "Finish a provider sign-in with the callback URL or token the browser showed")
	cmd.MarkFlagsMutuallyExclusive("provider", "oauth-result")
	return cmd
}

const oauthPasteHint = "If the browser ends on a page showing a token, finish with: aide login --oauth-result '<url or token>'"

func loginWithProvider(ctx context.Context, opts *rootOptions, d *deps, provider string) error {
	fmt.Fprintln(opts.out, "Opening browser to authenticate...") //nolint:errcheck
	fmt.Fprintln(opts.out, oauthPasteHint)                       //nolint:errcheck
	res, err := d.oauth(func(url string) {
		fmt.Fprintf(opts.out, "Could not open browser. Visit this URL manually:\n  %s\n", url) //nolint:errcheck
		if clipboard.WriteAll(url) == nil {
			fmt.Fprintln(opts.out, "(copied to clipboard)") //nolint:errcheck
		}
	})(ctx, provider)
	if err != nil {
		return fmt.Errorf("%s sign-in: %w", provider, err)
	}
	_, err = d.store.CompleteOAuth(ctx, res.Token, res.Error)
	return err
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var (
		reg           domain.Registration
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command(cmd.Context(), opts, func(ctx context.Context, d *deps) error {
				d.store.Initialize(ctx)
				if passwordStdin {
					p, err := readSecret(opts.in)
					if err != nil {
						return err
					}
					reg.Password = p
				}
				if err := prompt(
					promptField{title: "Full name", value: &reg.FullName},
					promptField{title: "Email", value: &reg.Email},
					promptField{title: "Password", value: &reg.Password, secret: true},
				); err != nil {
					return err
				}
				_, err := d.store.Register(ctx, reg)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&reg.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&reg.JobTitle, "job-title", "", "Job title")
	cmd.Flags().StringVar(&reg.Company, "company", "", "Company")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command(cmd.Context(), opts, func(ctx context.Context, d *deps) error {
				if tok, _ := d.tokens.Load(); tok == "" { //nolint:errcheck
					fmt.Fprintln(opts.out, "Already signed out.") //nolint:errcheck
					return nil
				}
				d.store.Initialize(ctx)
				return d.store.Logout(ctx)
			})
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return command(cmd.Context(), opts, func(ctx context.Context, d *deps) error {
				snap := d.store.Initialize(ctx)
				if !snap.Authenticated() {
					return errors.New("not signed in (run: aide login)")
				}
				printAccount(opts.out, snap.User)
				return nil
			})
		},
	}
}

func newForgotPasswordCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password EMAIL",
		Short: "Email a password reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return command(cmd.Context(), opts, func(ctx context.Context, d *deps) error {
				return d.store.ForgotPassword(ctx, strings.TrimSpace(args[0]))
			})
		},
	}
}

func newVerifyEmailCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email TOKEN",
		Short: "Confirm your email address with the mailed token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return command(cmd.Context(), opts, func(ctx context.Context, d *deps) error {
				return d.store.VerifyEmail(ctx, strings.TrimSpace(args[0]))
			})
		},
	}
}

func newResetPasswordCmd(opts *rootOptions) *cobra.Command {
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "reset-password TOKEN",
		Short: "Set a new password with a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return command(cmd.Context(), opts, func(ctx context.Context, d *deps) error {
				var password string
				if passwordStdin {
					p, err := readSecret(opts.in)
					if err != nil {
						return err
					}
					password = p
				}
				if err := prompt(promptField{title: "New password", value: &password, secret: true}); err != nil {
					return err
				}
				return d.store.ResetPassword(ctx, strings.TrimSpace(args[0]), password)
			})
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the new password from stdin")
	return cmd
}
