package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tinycms/internal/record"
	"github.com/roach88/tinycms/internal/store"
)

// InvoiceOptions holds flags shared by the invoice subcommands.
type InvoiceOptions struct {
	*RootOptions
	Date     string
	Number   string
	Customer string
}

// NewInvoiceCommand creates the invoice command group.
func NewInvoiceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Manage invoices",
	}

	cmd.AddCommand(newInvoiceAddCommand(rootOpts))
	cmd.AddCommand(newInvoiceListCommand(rootOpts))
	cmd.AddCommand(newInvoiceGetCommand(rootOpts))
	cmd.AddCommand(newInvoiceUpdateCommand(rootOpts))
	cmd.AddCommand(newInvoiceDeleteCommand(rootOpts))

	return cmd
}

func newInvoiceAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvoiceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an invoice for a customer",
		Example: `  tinycms invoice add --customer 1 --number INV-001`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addInvoice(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer id (required)")
	cmd.Flags().StringVar(&opts.Number, "number", "", "invoice number")
	cmd.Flags().StringVar(&opts.Date, "date", "", "date (default today)")
	_ = cmd.MarkFlagRequired("customer")

	return cmd
}

func addInvoice(opts *InvoiceOptions, cmd *cobra.Command) error {
	date := opts.Date
	if date == "" {
		date = opts.today()
	}

	return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
		id, err := a.store.Invoices().Add(ctx, record.Invoice{
			Date:       date,
			Number:     opts.Number,
			CustomerID: opts.Customer,
		})
		if err != nil {
			return invoiceFailure("failed to add invoice", opts.Customer, err)
		}
		return a.out.Success(idResult{Kind: "invoice", ID: id})
	})
}

func newInvoiceListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvoiceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				var (
					invoices []record.Invoice
					err      error
				)
				if opts.Customer != "" {
					invoices, err = a.store.Invoices().ListByCustomer(ctx, opts.Customer)
				} else {
					invoices, err = a.store.Invoices().List(ctx)
				}
				if err != nil {
					return storeFailure("failed to list invoices", err)
				}
				return a.out.Success(invoiceTable(invoices))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Customer, "customer", "", "only invoices of this customer")

	return cmd
}

func newInvoiceGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				inv, ok, err := a.store.Invoices().Get(ctx, args[0])
				if err != nil {
					return storeFailure("failed to get invoice", err)
				}
				if !ok {
					return NewExitError(ExitFailure, fmt.Sprintf("invoice %s not found", args[0]))
				}
				return a.out.Success(invoiceTable{inv})
			})
		},
	}
}

func newInvoiceUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvoiceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Change fields of an invoice",
		Example: `  tinycms invoice update 7 --number INV-007b`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateInvoice(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer id")
	cmd.Flags().StringVar(&opts.Number, "number", "", "invoice number")
	cmd.Flags().StringVar(&opts.Date, "date", "", "date")

	return cmd
}

func updateInvoice(opts *InvoiceOptions, id string, cmd *cobra.Command) error {
	flags := cmd.Flags()

	return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
		invoices := a.store.Invoices()
		inv, ok, err := invoices.Get(ctx, id)
		if err != nil {
			return storeFailure("failed to get invoice", err)
		}
		if !ok {
			return NewExitError(ExitFailure, fmt.Sprintf("invoice %s not found", id))
		}

		if flags.Changed("customer") {
			inv.CustomerID = opts.Customer
		}
		if flags.Changed("number") {
			inv.Number = opts.Number
		}
		if flags.Changed("date") {
			inv.Date = opts.Date
		}

		if err := invoices.Update(ctx, inv); err != nil {
			return invoiceFailure("failed to update invoice", inv.CustomerID, err)
		}
		return a.out.Success(invoiceTable{inv})
	})
}

func newInvoiceDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if err := a.store.Invoices().Delete(ctx, args[0]); err != nil {
					return storeFailure("failed to delete invoice", err)
				}
				return a.out.Success(message{Text: fmt.Sprintf("Deleted invoice %s", args[0])})
			})
		},
	}
}

// invoiceFailure reports a missing customer by id instead of the raw
// store error.
func invoiceFailure(message, customerID string, err error) error {
	if errors.Is(err, store.ErrCustomerNotFound) {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: customer %s not found", message, customerID))
	}
	return storeFailure(message, err)
}
