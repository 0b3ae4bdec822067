package cmd

import (
	"github.com/spf13/cobra"

	makerworks "github.com/schartrand77/makerworks-go"
	"github.com/schartrand77/makerworks-go/makerctl/internal/output"
)

var filamentsCmd = &cobra.Command{
	Use:   "filaments",
	Short: "Manage the filament inventory",
	Long: `List the filaments offered by the service, and add, update or
remove entries. Mutating commands require an administrator session.

Examples:
  makerctl filaments list
  makerctl filaments add PLA "Galaxy Black" "#111111"
  makerctl filaments update <id> --color "Signal Red" --hex "#cc0000"
  makerctl filaments delete <id>`,
}

var filamentsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available filaments",
	Args:    cobra.NoArgs,
	RunE:    runFilamentsList,
}

var filamentsAddCmd = &cobra.Command{
	Use:   "add <type> <color> <hex>",
	Short: "Add a filament (admin only)",
	Args:  cobra.ExactArgs(3),
	RunE:  runFilamentsAdd,
}

var filamentsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a filament (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilamentsUpdate,
}

var filamentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a filament (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilamentsDelete,
}

func init() {
	rootCmd.AddCommand(filamentsCmd)
	filamentsCmd.AddCommand(filamentsListCmd)
	filamentsCmd.AddCommand(filamentsAddCmd)
	filamentsCmd.AddCommand(filamentsUpdateCmd)
	filamentsCmd.AddCommand(filamentsDeleteCmd)

	filamentsUpdateCmd.Flags().String("type", "", "new material type")
	filamentsUpdateCmd.Flags().String("color", "", "new color name")
	filamentsUpdateCmd.Flags().String("hex", "", "new display hex code")
}

func runFilamentsList(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	filaments, err := client.ListFilaments(cmd.Context())
	if err != nil {
		return err
	}

	if handled, err := renderStructured(filaments); handled {
		return err
	}

	if len(filaments) == 0 {
		printer.Info("No filaments in the inventory.")
		return nil
	}

	table := output.NewQuietTable([]string{"ID", "TYPE", "COLOR", "HEX"}, quiet)
	for _, f := range filaments {
		table.AddRow([]string{f.ID, f.Type, f.Color, f.Hex})
	}
	table.Render()
	return nil
}

func runFilamentsAdd(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	filament, err := client.CreateFilament(cmd.Context(), makerworks.NewFilament{
		Type:  args[0],
		Color: args[1],
		Hex:   args[2],
	})
	if err != nil {
		return err
	}

	printer.Success("Added %s %s (%s)", filament.Type, filament.Color, filament.ID)
	return nil
}

func runFilamentsUpdate(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	var update makerworks.FilamentUpdate
	if v, _ := cmd.Flags().GetString("type"); v != "" {
		update.Type = &v
	}
	if v, _ := cmd.Flags().GetString("color"); v != "" {
		update.Color = &v
	}
	if v, _ := cmd.Flags().GetString("hex"); v != "" {
		update.Hex = &v
	}

	filament, err := client.UpdateFilament(cmd.Context(), args[0], update)
	if err != nil {
		return err
	}

	printer.Success("Updated %s: %s %s", filament.ID, filament.Type, filament.Color)
	return nil
}

func runFilamentsDelete(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, _, err := newSession()
	if err != nil {
		return err
	}

	if err := client.DeleteFilament(cmd.Context(), args[0]); err != nil {
		return err
	}

	printer.Success("Deleted filament %s", args[0])
	return nil
}
