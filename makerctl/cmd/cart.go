package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	makerworks "github.com/schartrand77/makerworks-go"
	"github.com/schartrand77/makerworks-go/makerctl/internal/output"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the local shopping cart",
	Long: `The cart lives on disk next to your session, so items added here
survive between invocations and feed directly into checkout.

Examples:
  makerctl cart add <model-id>        # Add a model (repeat to bump quantity)
  makerctl cart set <model-id> 3      # Set an exact quantity
  makerctl cart list                  # Show the cart with its subtotal
  makerctl cart checkout              # Create a payment session`,
}

var cartListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show cart contents and subtotal",
	Args:    cobra.NoArgs,
	RunE:    runCartList,
}

var cartAddCmd = &cobra.Command{
	Use:   "add <model-id>",
	Short: "Add a model to the cart",
	Long: `Add a model to the cart. Adding a model that is already in the
cart increments its quantity instead of creating a second line.`,
	Args: cobra.ExactArgs(1),
	RunE: runCartAdd,
}

var cartRemoveCmd = &cobra.Command{
	Use:     "remove <model-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a line from the cart",
	Args:    cobra.ExactArgs(1),
	RunE:    runCartRemove,
}

var cartSetCmd = &cobra.Command{
	Use:   "set <model-id> <quantity>",
	Short: "Set the quantity of a cart line",
	Long: `Set the quantity of a line already in the cart. Quantities below
one are clamped to one; use "remove" to drop the line entirely.`,
	Args: cobra.ExactArgs(2),
	RunE: runCartSet,
}

var cartIncreaseCmd = &cobra.Command{
	Use:   "increase <model-id>",
	Short: "Increase a line's quantity by one",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartIncrease,
}

var cartDecreaseCmd = &cobra.Command{
	Use:   "decrease <model-id>",
	Short: "Decrease a line's quantity by one, removing it at zero",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartDecrease,
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE:  runCartClear,
}

var cartCheckoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Create a payment session for the cart",
	Args:  cobra.NoArgs,
	RunE:  runCartCheckout,
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(cartListCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartSetCmd)
	cartCmd.AddCommand(cartIncreaseCmd)
	cartCmd.AddCommand(cartDecreaseCmd)
	cartCmd.AddCommand(cartClearCmd)
	cartCmd.AddCommand(cartCheckoutCmd)

	cartCheckoutCmd.Flags().Bool("keep", false, "keep the cart after checkout instead of clearing it")
}

func runCartList(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, _, cart, err := newSession()
	if err != nil {
		return err
	}

	items := cart.Items()

	if handled, err := renderStructured(items); handled {
		return err
	}

	if len(items) == 0 {
		printer.Info("Your cart is empty.")
		return nil
	}

	table := output.NewQuietTable([]string{"ID", "NAME", "QTY", "UNIT", "LINE"}, printer.IsQuiet())
	for _, item := range items {
		table.AddRow([]string{
			printer.Dim(item.ID),
			printer.Bold(item.Name),
			strconv.Itoa(item.Quantity),
			fmt.Sprintf("$%.2f", item.UnitPrice),
			fmt.Sprintf("$%.2f", item.UnitPrice*float64(item.Quantity)),
		})
	}
	table.Render()

	printer.Print("")
	printer.Print("%d item(s), subtotal %s", cart.Count(), printer.Bold(fmt.Sprintf("$%.2f", cart.Subtotal())))
	return nil
}

func runCartAdd(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, cart, err := newSession()
	if err != nil {
		return err
	}

	model, err := client.GetModel(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cart.AddItem(makerworks.CartItem{
		ID:        model.ID,
		Name:      model.Name,
		UnitPrice: model.Price,
	})

	printer.Success("Added %s to the cart (%d item(s) total)", printer.Bold(model.Name), cart.Count())
	return nil
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, _, cart, err := newSession()
	if err != nil {
		return err
	}

	cart.RemoveItem(args[0])
	printer.Success("Removed %s from the cart", args[0])
	return nil
}

func runCartSet(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, _, cart, err := newSession()
	if err != nil {
		return err
	}

	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}

	cart.SetQuantity(args[0], quantity)
	printer.Success("Cart updated (%d item(s) total)", cart.Count())
	return nil
}

func runCartIncrease(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, _, cart, err := newSession()
	if err != nil {
		return err
	}

	cart.IncreaseQuantity(args[0])
	printer.Success("Cart updated (%d item(s) total)", cart.Count())
	return nil
}

func runCartDecrease(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, _, cart, err := newSession()
	if err != nil {
		return err
	}

	cart.DecreaseQuantity(args[0])
	printer.Success("Cart updated (%d item(s) total)", cart.Count())
	return nil
}

func runCartClear(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, _, cart, err := newSession()
	if err != nil {
		return err
	}

	cart.Clear()
	printer.Success("Cart cleared")
	return nil
}

func runCartCheckout(cmd *cobra.Command, args []string) error {
	printer := newPrinter()
	_, client, cart, err := newSession()
	if err != nil {
		return err
	}

	checkout, err := client.CreateCheckoutSession(cmd.Context(), cart.Items())
	if err != nil {
		return err
	}

	keep, _ := cmd.Flags().GetBool("keep")
	if !keep {
		cart.Clear()
	}

	printer.Success("Checkout session created")
	printer.Print("Complete your payment at:")
	printer.Print("  %s", printer.Bold(checkout.CheckoutURL))
	return nil
}
