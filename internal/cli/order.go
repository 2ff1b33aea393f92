package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/tapdeck/internal/backend"
	"github.com/llehouerou/tapdeck/internal/config"
	"github.com/llehouerou/tapdeck/internal/logging"
	"github.com/llehouerou/tapdeck/internal/playlists"
)

func init() {
	orderCmd.AddCommand(orderShowCmd, orderClearCmd)
	rootCmd.AddCommand(orderCmd)
}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Inspect or reset the custom track orders",
}

var orderShowCmd = &cobra.Command{
	Use:               "show [kind]",
	Short:             "Show the saved track orders",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeKinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := kindsArg(args)
		if err != nil {
			return err
		}
		return withOrders(cmd, func(ctx context.Context, orders *playlists.Manager) error {
			out := cmd.OutOrStdout()
			tier := "remote"
			if orders.UsingLocal() {
				tier = "local"
			}
			_, _ = fmt.Fprintf(out, "tier: %s\n", tier)
			for _, kind := range kinds {
				ids := orders.Order(kind)
				if len(ids) == 0 {
					_, _ = fmt.Fprintf(out, "%s: default order\n", kind.Label())
					continue
				}
				_, _ = fmt.Fprintf(out, "%s: %s\n", kind.Label(), strings.Join(ids, ", "))
			}
			return nil
		})
	},
}

var orderClearCmd = &cobra.Command{
	Use:               "clear [kind]",
	Short:             "Reset the track order to the catalog default",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeKinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := kindsArg(args)
		if err != nil {
			return err
		}
		return withOrders(cmd, func(ctx context.Context, orders *playlists.Manager) error {
			for _, kind := range kinds {
				if !orders.Clear(ctx, kind) {
					return fmt.Errorf("%s order not reset: no user configured", kind)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s order reset\n", kind.Label())
			}
			return nil
		})
	},
}

// withOrders loads the order manager and runs fn with it.
func withOrders(cmd *cobra.Command, fn func(context.Context, *playlists.Manager) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.SetupStderr(cfg.Log)

	kv, err := openState(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	orders := newOrderManager(cfg, backendClient(cfg), kv, nil)
	ctx := cmd.Context()
	orders.Load(ctx)
	return fn(ctx, orders)
}

// backendClient returns the API client, or nil without backend settings.
func backendClient(cfg *config.Config) *backend.Client {
	if !cfg.HasBackendConfig() {
		return nil
	}
	return backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey)
}
