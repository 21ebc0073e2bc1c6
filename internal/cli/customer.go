package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tinycms/internal/record"
)

// CustomerOptions holds flags shared by the customer subcommands.
type CustomerOptions struct {
	*RootOptions
	Date  string
	Name  string
	Phone string
}

// NewCustomerCommand creates the customer command group.
func NewCustomerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage customers",
	}

	cmd.AddCommand(newCustomerAddCommand(rootOpts))
	cmd.AddCommand(newCustomerListCommand(rootOpts))
	cmd.AddCommand(newCustomerSearchCommand(rootOpts))
	cmd.AddCommand(newCustomerGetCommand(rootOpts))
	cmd.AddCommand(newCustomerUpdateCommand(rootOpts))
	cmd.AddCommand(newCustomerDeleteCommand(rootOpts))

	return cmd
}

func newCustomerAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CustomerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a customer",
		Example: `  tinycms customer add --name "John Smith" --phone 555-1111
  tinycms customer add --name "Jane Smith" --date 2024-01-02`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addCustomer(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "customer name (required)")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Date, "date", "", "date (default today)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func addCustomer(opts *CustomerOptions, cmd *cobra.Command) error {
	date := opts.Date
	if date == "" {
		date = opts.today()
	}

	return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
		id, err := a.store.Customers().Add(ctx, record.Customer{
			Date:  date,
			Name:  opts.Name,
			Phone: opts.Phone,
		})
		if err != nil {
			return storeFailure("failed to add customer", err)
		}
		return a.out.Success(idResult{Kind: "customer", ID: id})
	})
}

func newCustomerListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the newest customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				customers, err := a.store.Customers().List(ctx)
				if err != nil {
					return storeFailure("failed to list customers", err)
				}
				return a.out.Success(customerTable(customers))
			})
		},
	}
}

func newCustomerSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search customers by name or phone",
		Long: `Search customers by name or phone.

Every whitespace-separated term must appear in the name or the phone,
ignoring case. A blank query lists the newest customers.`,
		Example: `  tinycms customer search "smith 555"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				customers, err := a.store.Customers().Search(ctx, args[0])
				if err != nil {
					return storeFailure("failed to search customers", err)
				}
				return a.out.Success(customerTable(customers))
			})
		},
	}
}

func newCustomerGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				c, ok, err := a.store.Customers().Get(ctx, args[0])
				if err != nil {
					return storeFailure("failed to get customer", err)
				}
				if !ok {
					return NewExitError(ExitFailure, fmt.Sprintf("customer %s not found", args[0]))
				}
				return a.out.Success(customerTable{c})
			})
		},
	}
}

func newCustomerUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CustomerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Change fields of a customer",
		Example: `  tinycms customer update 3 --phone 555-9999`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateCustomer(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Date, "date", "", "date")

	return cmd
}

func updateCustomer(opts *CustomerOptions, id string, cmd *cobra.Command) error {
	flags := cmd.Flags()

	return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
		customers := a.store.Customers()
		c, ok, err := customers.Get(ctx, id)
		if err != nil {
			return storeFailure("failed to get customer", err)
		}
		if !ok {
			return NewExitError(ExitFailure, fmt.Sprintf("customer %s not found", id))
		}

		if flags.Changed("name") {
			c.Name = opts.Name
		}
		if flags.Changed("phone") {
			c.Phone = opts.Phone
		}
		if flags.Changed("date") {
			c.Date = opts.Date
		}

		if err := customers.Update(ctx, c); err != nil {
			return storeFailure("failed to update customer", err)
		}
		return a.out.Success(customerTable{c})
	})
}

func newCustomerDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a customer and all of its invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if err := a.store.Customers().Delete(ctx, args[0]); err != nil {
					return storeFailure("failed to delete customer", err)
				}
				return a.out.Success(message{Text: fmt.Sprintf("Deleted customer %s", args[0])})
			})
		},
	}
}
