package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Luc0-0/Samarth/internal/model"
	"github.com/Luc0-0/Samarth/internal/pipeline"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets the pipeline can answer from",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := pipeline.NewCatalog(map[model.Domain]string{
			model.DomainMarket:      cfg.DataGov.MarketResource,
			model.DomainAgriculture: cfg.DataGov.ProductionResource,
		})
		for _, d := range catalog.Datasets() {
			kind := "historical"
			if d.Live() {
				kind = "live"
			}
			fmt.Printf("%-10s %s\n           publisher: %s\n           locator:   %s\n", kind, d.Title, d.Publisher, d.Locator)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
