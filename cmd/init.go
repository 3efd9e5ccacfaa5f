package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/examdesk/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize examdesk configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure examdesk and writes the answers to the config file (.examdesk.yml unless --config is given).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
