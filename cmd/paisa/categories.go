package main

import (
	"fmt"

	"github.com/paisaflow/paisaflow/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the available categories",
		Run: func(_ *cobra.Command, _ []string) {
			for _, c := range model.CandidateCategories() {
				fmt.Printf("%-10s %s\n", c.Value, c.Label)
			}
		},
	}
}
