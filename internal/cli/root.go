// Package cli implements the tapdeck command line.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/llehouerou/tapdeck/internal/config"
	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/state"
)

var errNoBackend = errors.New("backend not configured: set backend.url in config.toml and store the key with 'tapdeck key set'")

func init() {
	rootCmd.PersistentFlags().String("state", "", "Path of the state database (overrides state_path)")
	rootCmd.PersistentFlags().String("user", "", "User owning the playlist orders (overrides user_id)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("user", cobra.NoFileCompletions))
}

var rootCmd = &cobra.Command{
	Use:           "tapdeck",
	Short:         "Audio and video player for the fan engagement catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPlayer,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "tapdeck: %s\n", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p := lo.Must(cmd.Flags().GetString("state")); p != "" {
		cfg.StatePath = p
	}
	if u := lo.Must(cmd.Flags().GetString("user")); u != "" {
		cfg.UserID = u
	}
	return cfg, nil
}

func openState(cfg *config.Config) (*state.Manager, error) {
	if cfg.StatePath != "" {
		return state.OpenPath(cfg.StatePath)
	}
	return state.Open()
}

// kindsArg returns the kind named by args, or every kind.
func kindsArg(args []string) ([]playlist.Kind, error) {
	if len(args) == 0 {
		return playlist.Kinds, nil
	}
	kind, err := playlist.ParseKind(args[0])
	if err != nil {
		return nil, err
	}
	return []playlist.Kind{kind}, nil
}

func completeKinds(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return lo.Map(playlist.Kinds, func(k playlist.Kind, _ int) string { return string(k) }), cobra.ShellCompDirectiveNoFileComp
}
