package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/tapdeck/internal/config"
	"github.com/llehouerou/tapdeck/internal/errmsg"
)

func init() {
	keyCmd.AddCommand(keySetCmd, keyDeleteCmd)
	rootCmd.AddCommand(keyCmd)
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the backend API key in the OS keyring",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store the backend API key (read from stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := ""
		if len(args) == 1 {
			key = args[0]
		} else {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read key: %w", err)
			}
			key = line
		}
		if err := config.SetAPIKey(strings.TrimSpace(key)); err != nil {
			return errors.New(errmsg.Format(errmsg.OpKeySave, err))
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "API key stored")
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the backend API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.DeleteAPIKey(); err != nil {
			return errors.New(errmsg.Format(errmsg.OpKeyDelete, err))
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "API key removed")
		return nil
	},
}
