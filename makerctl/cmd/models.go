package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	makerworks "github.com/schartrand77/makerworks-go"
	"github.com/schartrand77/makerworks-go/makerctl/internal/output"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Browse printable models",
}

var modelsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available models",
	Args:    cobra.NoArgs,
	RunE:    runModelsList,
}

var modelsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsGet,
}

var modelsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a printable model",
	Long: `Upload a model file (.stl, .3mf, .obj) with its listing metadata.

Examples:
  makerctl models upload benchy.stl --name Benchy
  makerctl models upload boat.3mf --tags "boat,calibration" --credit "CC-BY upstream"`,
	Args: cobra.ExactArgs(1),
	RunE: runModelsUpload,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsGetCmd)
	modelsCmd.AddCommand(modelsUploadCmd)

	modelsUploadCmd.Flags().String("name", "", "listing name (defaults to the file name)")
	modelsUploadCmd.Flags().String("description", "", "listing description")
	modelsUploadCmd.Flags().String("tags", "", "comma-separated tags")
	modelsUploadCmd.Flags().String("credit", "", "attribution for the original designer")
}

func runModelsList(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	models, err := client.ListModels(cmd.Context())
	if err != nil {
		return err
	}

	if handled, err := renderStructured(models); handled {
		return err
	}

	if len(models) == 0 {
		printer.Info("No models available.")
		return nil
	}

	table := output.NewQuietTable([]string{"ID", "NAME", "VOLUME", "PRICE"}, printer.IsQuiet())
	for _, m := range models {
		table.AddRow([]string{
			printer.Dim(m.ID),
			printer.Bold(m.Name),
			fmt.Sprintf("%.1f cm³", m.Volume),
			fmt.Sprintf("$%.2f", m.Price),
		})
	}
	table.Render()
	return nil
}

func runModelsUpload(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening model file: %w", err)
	}
	defer f.Close()

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		base := filepath.Base(args[0])
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	description, _ := cmd.Flags().GetString("description")
	tags, _ := cmd.Flags().GetString("tags")
	credit, _ := cmd.Flags().GetString("credit")

	model, err := client.UploadModel(cmd.Context(), makerworks.ModelUpload{
		Name:        name,
		Description: description,
		Tags:        tags,
		Credit:      credit,
	}, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}

	printer.Success("Uploaded %s (%s)", printer.Bold(model.Name), model.ID)
	return nil
}

func runModelsGet(cmd *cobra.Command, args []string) error {
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	model, err := client.GetModel(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if handled, err := renderStructured(model); handled {
		return err
	}

	table := output.NewTable([]string{"FIELD", "VALUE"})
	table.AddRows([][]string{
		{"ID", model.ID},
		{"Name", model.Name},
		{"Volume", fmt.Sprintf("%.1f cm³", model.Volume)},
		{"Dimensions", fmt.Sprintf("%.0f × %.0f × %.0f mm", model.Dimensions.X, model.Dimensions.Y, model.Dimensions.Z)},
		{"Price", fmt.Sprintf("$%.2f", model.Price)},
		{"Uploaded", formatTime(model.UploadedAt)},
	})
	table.Render()
	return nil
}
