package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expenses/internal/core"
	"expenses/internal/storage"
)

func newCategoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage the shared expense categories",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cats, err := a.store.ListCategories(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME")
				for _, c := range cats {
					fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Add a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := categoryName(args[0])
				if err != nil {
					return err
				}
				c, err := a.store.CreateCategory(cmd.Context(), name)
				if errors.Is(err, core.ErrDuplicate) {
					return fmt.Errorf("category %q already exists", name)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created category %d %s\n", c.ID, c.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename ID NAME",
			Short: "Rename a category",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				name, err := categoryName(args[1])
				if err != nil {
					return err
				}
				switch err := a.store.RenameCategory(cmd.Context(), id, name); {
				case errors.Is(err, core.ErrNotFound):
					return fmt.Errorf("category %d not found", id)
				case errors.Is(err, core.ErrDuplicate):
					return fmt.Errorf("category %q already exists", name)
				case err != nil:
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed category %d to %s\n", id, name)
				return nil
			},
		},
		newCategoryDeleteCommand(a),
	)
	return cmd
}

func newCategoryDeleteCommand(a *app) *cobra.Command {
	var reassignTo int64

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a category, optionally moving its expenses first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if reassignTo == id {
				return errors.New("--reassign-to must name a different category")
			}

			var moved int64
			err = a.store.WithTx(cmd.Context(), func(q *storage.Queries) error {
				if reassignTo > 0 {
					if _, err := q.GetCategory(cmd.Context(), reassignTo); err != nil {
						return fmt.Errorf("target category %d: %w", reassignTo, err)
					}
					if moved, err = q.ReassignExpenses(cmd.Context(), id, reassignTo); err != nil {
						return err
					}
				}
				return q.DeleteCategory(cmd.Context(), id)
			})
			switch {
			case errors.Is(err, core.ErrCategoryInUse):
				return fmt.Errorf("category %d is still used by expenses; pass --reassign-to", id)
			case errors.Is(err, core.ErrNotFound):
				return fmt.Errorf("category not found: %w", err)
			case err != nil:
				return err
			}

			a.logger.Info("Category deleted", "category_id", id, "reassigned", moved)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %d (%d expenses moved)\n", id, moved)
			return nil
		},
	}
	cmd.Flags().Int64Var(&reassignTo, "reassign-to", 0, "move the category's expenses to this category first")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func categoryName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", errors.New("category name cannot be empty")
	}
	if len(name) > 255 {
		return "", errors.New("category name must be at most 255 characters")
	}
	return name, nil
}
