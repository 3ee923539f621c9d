package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the rappers a freestyle can be written as",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog, err := buildCatalog(cfg)
		if err != nil {
			return err
		}

		def := catalog.Default().Name
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, p := range catalog.All() {
			marker := " "
			if p.Name == def {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %s\t%s\n", marker, p.Name, p.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}
