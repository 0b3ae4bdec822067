package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	makerworks "github.com/schartrand77/makerworks-go"
	"github.com/schartrand77/makerworks-go/makerctl/internal/output"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <model-id>",
	Short: "Get a print-cost estimate for a model",
	Long: `Request a cost and duration estimate for printing a model with a
given filament and print profile.

Examples:
  makerctl estimate <model-id> --filament-type PLA --filament-color Black
  makerctl estimate <model-id> --profile quality --text "Happy Birthday"`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().String("filament-type", "PLA", "filament material type")
	estimateCmd.Flags().String("filament-color", "", "filament color name")
	estimateCmd.Flags().String("profile", makerworks.ProfileStandard, "print profile: standard, quality, or elite")
	estimateCmd.Flags().String("text", "", "custom text to print on the model")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	profile, _ := cmd.Flags().GetString("profile")
	switch profile {
	case makerworks.ProfileStandard, makerworks.ProfileQuality, makerworks.ProfileElite:
	default:
		return fmt.Errorf("invalid print profile %q: must be standard, quality, or elite", profile)
	}

	model, err := client.GetModel(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	filamentType, _ := cmd.Flags().GetString("filament-type")
	filamentColor, _ := cmd.Flags().GetString("filament-color")
	text, _ := cmd.Flags().GetString("text")

	estimate, err := client.RequestEstimate(cmd.Context(), makerworks.EstimateRequest{
		ModelID:       model.ID,
		Volume:        model.Volume,
		Dimensions:    model.Dimensions,
		FilamentType:  filamentType,
		FilamentColor: filamentColor,
		PrintProfile:  profile,
		CustomText:    text,
	})
	if err != nil {
		return err
	}

	if handled, err := renderStructured(estimate); handled {
		return err
	}

	table := output.NewTable([]string{"FIELD", "VALUE"})
	table.AddRows([][]string{
		{"Model", model.Name},
		{"Cost", fmt.Sprintf("$%.2f", estimate.Cost)},
		{"Print time", estimate.Time},
		{"Material", fmt.Sprintf("%.1f g ($%.2f)", estimate.MaterialWeight, estimate.MaterialCost)},
	})
	table.Render()
	return nil
}
