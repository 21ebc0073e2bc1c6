package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tinycms/internal/transfer"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write every customer and invoice to a workbook",
		Long: `Write every customer and invoice to a workbook.

The workbook has a Customers sheet and an Invoices sheet. It can be
edited and loaded back with import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportWorkbook(rootOpts, args[0], cmd)
		},
	}
}

func exportWorkbook(opts *RootOptions, path string, cmd *cobra.Command) error {
	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		data, err := a.transfer.ExportAll(ctx)
		if err != nil {
			return storeFailure("failed to export", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return WrapExitError(ExitFailure, "failed to write workbook", err)
		}
		return a.out.Success(message{Text: fmt.Sprintf("Exported to %s", path)})
	})
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Upsert customers and invoices from a workbook",
		Long: `Upsert customers and invoices from a workbook.

Rows are matched by id and replace existing records. Each sheet is
imported in one transaction: if a sheet fails, none of its rows are
kept and the other sheet is still imported. Rows without an id (or
customers without a name) are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importWorkbook(rootOpts, args[0], cmd)
		},
	}
}

func importWorkbook(opts *RootOptions, path string, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read workbook", err)
	}

	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		res, err := a.transfer.ImportAll(ctx, data)
		if errors.Is(err, transfer.ErrUnreadableWorkbook) {
			return WrapExitError(ExitCommandError, "failed to import", err)
		}
		if outErr := a.out.Success(importResult(res)); outErr != nil {
			return outErr
		}
		if err != nil {
			return storeFailure("import incomplete", err)
		}
		return nil
	})
}

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every customer and invoice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Yes {
				return NewExitError(ExitCommandError, "refusing to clear without --yes")
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if err := a.store.ClearAll(ctx); err != nil {
					return storeFailure("failed to clear", err)
				}
				return a.out.Success(message{Text: "Cleared all data"})
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm deleting all data")

	return cmd
}
