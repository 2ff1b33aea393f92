package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/tapdeck/internal/logging"
	"github.com/llehouerou/tapdeck/internal/ui/render"
)

func init() {
	tracksCmd.Flags().Bool("ordered", true, "Apply the saved custom order")
	rootCmd.AddCommand(tracksCmd)
}

var tracksCmd = &cobra.Command{
	Use:               "tracks [kind]",
	Short:             "List the catalog tracks",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeKinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := kindsArg(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logging.SetupStderr(cfg.Log)

		client := backendClient(cfg)
		if client == nil {
			return errNoBackend
		}
		ordered, err := cmd.Flags().GetBool("ordered")
		if err != nil {
			return err
		}

		kv, err := openState(cfg)
		if err != nil {
			return err
		}
		defer kv.Close()
		orders := newOrderManager(cfg, client, kv, nil)
		if ordered {
			orders.Load(cmd.Context())
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
		defer w.Flush()
		for _, kind := range kinds {
			tracks, err := client.ListTracks(cmd.Context(), kind)
			if err != nil {
				return fmt.Errorf("list %s tracks: %w", kind, err)
			}
			if ordered {
				tracks = orders.Apply(tracks, kind)
			}
			_, _ = fmt.Fprintf(w, "%s (%s)\n", kind.Label(), humanize.Comma(int64(len(tracks))))
			for i, t := range tracks {
				stream := ""
				if t.IsManifest() {
					stream = "hls"
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					i+1, t.ID, render.Sanitize(t.Title), render.Sanitize(t.ArtistName), render.Clock(t.DurationSeconds), stream)
			}
		}
		return nil
	},
}
