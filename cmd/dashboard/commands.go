package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/water-dashboard/client"
	"github.com/jrsteele09/water-dashboard/internal/config"
	"github.com/jrsteele09/water-dashboard/internal/logging"
	"github.com/jrsteele09/water-dashboard/mockapi"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

type globalFlags struct {
	apiURL    string
	store     string
	tokenFile string
	strict    bool
}

// app holds what a command needs once the flags are parsed.
type app struct {
	client *client.Client
	out    io.Writer
}

func rootCmd() *cobra.Command {
	var flags globalFlags
	cmd := &cobra.Command{
		Use:           "dashboard",
		Short:         "Command line client for the water infrastructure dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv()
			c := config.New()
			logging.Setup(c.GetLogLevel(), c.GetEnv())
		},
	}
	cmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "API root (default $WATER_API_URL)")
	cmd.PersistentFlags().StringVar(&flags.store, "store", "", "Token store: memory, file or redis (default $WATER_TOKEN_STORE)")
	cmd.PersistentFlags().StringVar(&flags.tokenFile, "token-file", "", "Token file for the file store (default $WATER_TOKEN_FILE)")
	cmd.PersistentFlags().BoolVar(&flags.strict, "strict-mock", false, "Unknown routes answered by the mock fail with 404")

	cmd.AddCommand(
		loginCmd(&flags),
		registerCmd(&flags),
		logoutCmd(&flags),
		whoamiCmd(&flags),
		getCmd(&flags),
		versionCmd(),
	)
	return cmd
}

// withApp builds the client for one command and releases it afterwards.
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c := config.New()
	if flags.apiURL == "" {
		flags.apiURL = c.GetAPIBaseURL()
	}
	if flags.store == "" {
		flags.store = c.GetTokenStore()
	}
	if flags.tokenFile == "" {
		flags.tokenFile = c.GetTokenFile()
	}

	store, closeStore, err := openStore(ctx, c, flags.store, flags.tokenFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("closing token store")
		}
	}()

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	mock := mockapi.New(mockapi.WithStrictRoutes(flags.strict || c.GetMockStrictRoutes()))
	cl := client.New(store,
		client.WithBaseURL(flags.apiURL),
		client.WithHTTPClient(&http.Client{Timeout: c.GetRequestTimeout()}),
		client.WithMockService(mock),
		client.WithUserAgent("water-dashboard-cli/"+Version),
		client.WithLoginRedirector(client.RedirectFunc(func(_ context.Context, path string) {
			fmt.Fprintf(errOut, "Session expired. Sign in again with: dashboard login (%s)\n", path)
		})),
	)
	return fn(ctx, &app{client: cl, out: out})
}

func loginCmd(flags *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				profile, err := a.client.Login(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Signed in as %s (%s)\n", profile.FullName, profile.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func registerCmd(flags *globalFlags) *cobra.Command {
	var reg client.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a public account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				profile, err := a.client.Register(ctx, reg)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Registered %s (id %d)\n", profile.Email, profile.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reg.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&reg.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&reg.Password, "password", "", "Password, at least 8 characters")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&reg.Region, "region", "", "Home region")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.client.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Signed out")
				return nil
			})
		},
	}
}

func whoamiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				if _, ok := a.client.Session(ctx); !ok {
					return fmt.Errorf("not signed in")
				}
				profile, err := a.client.CurrentUser(ctx)
				if err != nil {
					return err
				}
				return printJSON(a.out, profile)
			})
		},
	}
}

func getCmd(flags *globalFlags) *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET an API path and print the JSON response",
		Example: `  dashboard get /dashboard/kpis
  dashboard get /projects --param region=Arusha --param limit=10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseParams(params)
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				resp, err := a.client.Get(ctx, args[0], query)
				if err != nil {
					return err
				}
				if resp.Mocked {
					log.Info().Str("path", args[0]).Msg("answered by mock data")
				}
				var v any
				if err := resp.Decode(&v); err != nil {
					return err
				}
				return printJSON(a.out, v)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			figure.NewFigure(config.New().GetAppName(), "cybermedium", true).Print()
			fmt.Fprintf(cmd.OutOrStdout(), "\ndashboard %s\n", Version)
		},
	}
}

func parseParams(params []string) (url.Values, error) {
	query := url.Values{}
	for _, p := range params {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", p)
		}
		query.Add(k, v)
	}
	return query, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
