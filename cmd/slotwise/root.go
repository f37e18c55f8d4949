// README: Root cobra command and shared flags.
package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "slotwise",
		Short:         "Travel-aware appointment slot scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	root.AddCommand(newServeCmd(&cfgPath), newSuggestCmd(&cfgPath))
	return root
}
