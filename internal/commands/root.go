package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finance-tracker/internal/buildinfo"
	"finance-tracker/internal/client"
	"finance-tracker/internal/config"
	"finance-tracker/internal/resolver"
)

// ServerEnv overrides the server URL from the config file.
const ServerEnv = "FIN_SERVER"

// app carries the global flags and builds the API client on demand.
type app struct {
	configPath string
	serverURL  string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:     "fin",
		Short:   "Personal finance tracker client",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/fin/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.serverURL, "server", "", "server URL (overrides $"+ServerEnv+" and the config file)")

	rootCmd.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newSignupCommand(a),
		newCategoriesCommand(a),
		newProductsCommand(a),
		newPricesCommand(a),
		newTagsCommand(a),
		newTxCommand(a),
		newStatsCommand(a),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "fin", buildinfo.String())
		},
	}
}

func (a *app) path() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

// server returns the server URL: flag, then environment, then config file.
func (a *app) server(cfg *config.Client) string {
	if a.serverURL != "" {
		return a.serverURL
	}
	if v := os.Getenv(ServerEnv); v != "" {
		return v
	}
	if cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return config.DefaultServerURL
}

// client builds an API client whose session is persisted in the config file.
func (a *app) client() (*client.Client, error) {
	path, err := a.path()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	session, err := client.LoadSession(config.NewFileTokenStore(path))
	if err != nil {
		return nil, err
	}
	return client.New(a.server(cfg), session), nil
}

// loaded builds a client and fetches every collection the forms match against.
func (a *app) loaded(ctx context.Context) (*client.Client, *resolver.Collections, error) {
	c, err := a.client()
	if err != nil {
		return nil, nil, err
	}
	data := resolver.NewCollections()
	if err := data.Load(ctx, c); err != nil {
		return nil, nil, explain(err)
	}
	return c, data, nil
}
