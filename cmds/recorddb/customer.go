package main

import (
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"

	"github.com/safing/recorddb/base/database/query"
)

var errNotFound = errors.New("customer not found")

func (a *app) ensureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create the customer table or add its missing columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The table is ensured when the database is opened.
			fmt.Fprintf(a.out, "table %s is ready\n", a.customers.Name())
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var c Customer

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Identifier == "" {
				id, err := uuid.NewV4()
				if err != nil {
					return err
				}
				c.Identifier = id.String()
			}

			if !a.customers.InsertRecord(cmd.Context(), &c) {
				return a.failed("add customer")
			}
			printCustomer(a, &c)
			return nil
		},
	}
	cmd.Flags().StringVar(&c.Identifier, "id", "", "identifier of the customer, generated if empty")
	cmd.Flags().StringVar(&c.Name, "name", "", "name of the customer")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.customers.GetFirstRecord(cmd.Context(), query.New().Match("identifier", id))
			switch {
			case err != nil:
				return err
			case c == nil && !a.db.IsEnabled():
				return a.failed("get customer")
			case c == nil:
				return fmt.Errorf("%w: %s", errNotFound, id)
			}
			printCustomer(a, c)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "identifier of the customer")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print all customers, optionally only those with a name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := query.New()
			if cmd.Flags().Changed("name") {
				q.Match("name", name)
			}

			customers, err := a.customers.GetRecordList(cmd.Context(), q)
			if err != nil {
				return err
			}
			if !a.db.IsEnabled() {
				return a.failed("list customers")
			}
			for _, c := range customers {
				printCustomer(a, c)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only list customers with this name")
	return cmd
}

func (a *app) removeCmd() *cobra.Command {
	var id, name string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the customers matching the given identifier and name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := query.New()
			if cmd.Flags().Changed("id") {
				q.Match("identifier", id)
			}
			if cmd.Flags().Changed("name") {
				q.Match("name", name)
			}
			if q.IsEmpty() {
				return errors.New("refusing to remove all customers, set --id or --name")
			}

			removed, ok := a.customers.RemoveRecord(cmd.Context(), q)
			if !ok {
				return a.failed("remove customers")
			}
			fmt.Fprintf(a.out, "removed %d customers\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "identifier of the customer")
	cmd.Flags().StringVar(&name, "name", "", "name of the customers")
	return cmd
}

func printCustomer(a *app, c *Customer) {
	fmt.Fprintf(a.out, "%s\t%s\n", c.Identifier, c.Name)
}
