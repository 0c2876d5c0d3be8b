package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Luc0-0/Samarth/internal/ingest"
)

var ingestTable string

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Load CSV or XLSX statistics files into the analytic store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		loader := ingest.New(e.Store, e.Vocab)
		var total int64
		for _, path := range args {
			n, err := loader.Load(cmd.Context(), path, ingestTable)
			if err != nil {
				return err
			}
			total += n
		}
		fmt.Printf("loaded %d rows into %s\n", total, ingestTable)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTable, "table", "agri_production", "target table (agri_production or climate_obs)")
	rootCmd.AddCommand(ingestCmd)
}
