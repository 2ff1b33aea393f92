package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/tapdeck/internal/logging"
	"github.com/llehouerou/tapdeck/internal/playback"
	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/ui/render"
)

func init() {
	stateCmd.AddCommand(stateShowCmd, stateClearCmd)
	rootCmd.AddCommand(stateCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the persisted player state",
}

var stateShowCmd = &cobra.Command{
	Use:               "show [kind]",
	Short:             "Show the persisted player state",
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

		kv, err := openState(cfg)
		if err != nil {
			return err
		}
		defer kv.Close()

		for _, kind := range kinds {
			printPlaybackState(cmd.OutOrStdout(), kind, playback.NewStore(kv, kind).State())
		}
		return nil
	},
}

var stateClearCmd = &cobra.Command{
	Use:               "clear [kind]",
	Short:             "Forget the persisted player state",
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

		kv, err := openState(cfg)
		if err != nil {
			return err
		}
		defer kv.Close()

		for _, kind := range kinds {
			playback.NewStore(kv, kind).Clear()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s player state cleared\n", kind.Label())
		}
		return nil
	},
}

func printPlaybackState(w io.Writer, kind playlist.Kind, st playback.PlaybackState) {
	_, _ = fmt.Fprintf(w, "%s\n", kind.Label())
	if st.CurrentTrackID == "" {
		_, _ = fmt.Fprintln(w, "  no track")
	} else {
		_, _ = fmt.Fprintf(w, "  track     %s (#%d)\n", st.CurrentTrackID, st.CurrentIndex+1)
		_, _ = fmt.Fprintf(w, "  position  %s / %s\n", render.Clock(st.PositionSeconds), render.Clock(st.DurationSeconds))
	}
	_, _ = fmt.Fprintf(w, "  volume    %d%%\n", int(st.Volume*100+0.5))
	_, _ = fmt.Fprintf(w, "  rate      %sx\n", humanize.Ftoa(st.PlaybackRate))
	_, _ = fmt.Fprintf(w, "  repeat    %s\n", st.RepeatMode)
	_, _ = fmt.Fprintf(w, "  shuffle   %t\n", st.IsShuffling)
	if !st.LastUpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "  updated   %s\n", humanize.Time(st.LastUpdatedAt))
	}
}
