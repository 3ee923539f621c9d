package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/freestyler/internal/config"
	"github.com/ziadkadry99/freestyler/internal/persona"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize freestyler configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to pick a provider, model and default persona, and writes a .freestyler.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile, persona.NewCatalog().Names())
		if err != nil {
			return err
		}
		if env := config.APIKeyEnvVar(cfg.Provider); env != "" {
			fmt.Printf("\nSet %s before generating.\n", env)
		}
		fmt.Println("Run `freestyler generate \"your topic\"` to drop some bars.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
