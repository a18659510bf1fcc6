package main

import (
	"context"
	"fmt"

	"github.com/exotrack/exotrack-console/internal/controller"
	"github.com/exotrack/exotrack-console/internal/domain"

	"github.com/spf13/cobra"
)

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Manage customer accounts (admin)",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()

		if err := a.requireAdmin(ctx); err != nil {
			return err
		}

		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")
		search, _ := cmd.Flags().GetString("search")

		fetch := func(ctx context.Context, q domain.PageQuery, _ string) (domain.Page[domain.User], error) {
			return a.users.FindAllWithPagination(ctx, q)
		}
		list := controller.NewList(fetch, controller.MatchUser, perPage, "", a.logger)

		if search != "" {
			if err := list.Search(ctx, search); err != nil {
				return err
			}
			if page > 1 {
				if err := list.SetPage(ctx, page); err != nil {
					return err
				}
			}
		} else if err := list.SetPage(ctx, page); err != nil {
			return err
		}

		table([]string{"ID", "DOCUMENT", "NAME", "EMAIL", "ROLE", "STATUS"}, renderUsers(list.Items()))
		pageFooter(list)
		return nil
	},
}

var customersShowCmd = &cobra.Command{
	Use:   "show <customer-id>",
	Short: "Show a customer and their declarations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()

		if err := a.requireAdmin(ctx); err != nil {
			return err
		}

		ov, err := a.overview.Customer(ctx, args[0])
		if err != nil {
			return err
		}

		u := ov.User
		fmt.Printf("%s <%s>\ndocument: %s  phone: %s  role: %s  %s\n\n",
			u.FullName, u.Email, u.DocumentNumber, u.PhoneNumber, u.Role, activeLabel(u.IsActive))
		if len(ov.Declarations) == 0 {
			fmt.Println("No declarations.")
			return nil
		}
		table([]string{"ID", "YEAR", "STATUS", "DESCRIPTION", "UPDATED"}, renderDeclarations(ov.Declarations))
		return nil
	},
}

var customersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a customer account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()

		if err := a.requireAdmin(ctx); err != nil {
			return err
		}

		req := domain.CreateUserRequest{Role: domain.RoleUser}
		req.DocumentNumber, _ = cmd.Flags().GetString("document")
		req.FullName, _ = cmd.Flags().GetString("full-name")
		req.Email, _ = cmd.Flags().GetString("email")
		req.PhoneNumber, _ = cmd.Flags().GetString("phone")
		req.Password, _ = cmd.Flags().GetString("password")
		if admin, _ := cmd.Flags().GetBool("admin"); admin {
			req.Role = domain.RoleAdmin
		}

		user, err := a.users.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s)\n", user.FullName, user.ID)
		return nil
	},
}

var customersUpdateCmd = &cobra.Command{
	Use:   "update <customer-id>",
	Short: "Update a customer's contact data or active flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()

		if err := a.requireAdmin(ctx); err != nil {
			return err
		}

		user, err := a.users.FindOne(ctx, args[0])
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("full-name") {
			user.FullName, _ = cmd.Flags().GetString("full-name")
		}
		if cmd.Flags().Changed("email") {
			user.Email, _ = cmd.Flags().GetString("email")
		}
		if cmd.Flags().Changed("phone") {
			user.PhoneNumber, _ = cmd.Flags().GetString("phone")
		}
		if cmd.Flags().Changed("active") {
			user.IsActive, _ = cmd.Flags().GetBool("active")
		}

		updated, err := a.users.Update(ctx, user.ID, *user)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s (%s)\n", updated.FullName, activeLabel(updated.IsActive))
		return nil
	},
}

var customersDeleteCmd = &cobra.Command{
	Use:   "delete <customer-id>",
	Short: "Delete a customer and their declarations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()

		if err := a.requireAdmin(ctx); err != nil {
			return err
		}
		if err := a.users.Remove(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

func init() {
	customersListCmd.Flags().Int("page", 1, "page to show")
	customersListCmd.Flags().Int("per-page", 10, "rows per page")
	customersListCmd.Flags().String("search", "", "filter by name, document or email")

	customersCreateCmd.Flags().String("document", "", "document number")
	customersCreateCmd.Flags().String("full-name", "", "full name")
	customersCreateCmd.Flags().String("email", "", "email address")
	customersCreateCmd.Flags().String("phone", "", "phone number")
	customersCreateCmd.Flags().String("password", "", "initial password")
	customersCreateCmd.Flags().Bool("admin", false, "grant the admin role")
	_ = customersCreateCmd.MarkFlagRequired("document")
	_ = customersCreateCmd.MarkFlagRequired("full-name")
	_ = customersCreateCmd.MarkFlagRequired("password")

	customersUpdateCmd.Flags().String("full-name", "", "full name")
	customersUpdateCmd.Flags().String("email", "", "email address")
	customersUpdateCmd.Flags().String("phone", "", "phone number")
	customersUpdateCmd.Flags().Bool("active", true, "account active flag")

	customersCmd.AddCommand(customersListCmd, customersShowCmd, customersCreateCmd, customersUpdateCmd, customersDeleteCmd)
	rootCmd.AddCommand(customersCmd)
}
