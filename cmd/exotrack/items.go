package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/exotrack/exotrack-console/internal/controller"
	"github.com/exotrack/exotrack-console/internal/domain"

	"github.com/spf13/cobra"
)

// newItemCommand builds the identical verb tree for one line-item
// collection. Assets, incomes and liabilities differ only in wording.
func newItemCommand(use, singular string, kind domain.ItemKind) *cobra.Command {
	parent := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Manage declaration %s", use),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s of a declaration", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			if err := a.requireAuth(ctx); err != nil {
				return err
			}

			declarationID, _ := cmd.Flags().GetString("declaration")
			page, _ := cmd.Flags().GetInt("page")
			perPage, _ := cmd.Flags().GetInt("per-page")
			search, _ := cmd.Flags().GetString("search")

			svc := a.itemService(kind)
			fetch := func(ctx context.Context, q domain.PageQuery, filter string) (domain.Page[domain.LineItem], error) {
				return svc.FindAllWithPagination(ctx, q, filter)
			}
			list := controller.NewList(fetch, controller.MatchLineItem, perPage, declarationID, a.logger)

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

			table([]string{"ID", "CONCEPT", "AMOUNT", "SOURCE"}, renderItems(list.Items()))
			pageFooter(list)
			return nil
		},
	}
	listCmd.Flags().String("declaration", "", "declaration id")
	listCmd.Flags().Int("page", 1, "page to show")
	listCmd.Flags().Int("per-page", 10, "rows per page")
	listCmd.Flags().String("search", "", "filter by concept")
	_ = listCmd.MarkFlagRequired("declaration")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Add an %s to a declaration", singular),
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

			req := domain.CreateLineItemRequest{Source: domain.SourceManual}
			req.DeclarationID, _ = cmd.Flags().GetString("declaration")
			req.Concept, _ = cmd.Flags().GetString("concept")
			rawAmount, _ := cmd.Flags().GetString("amount")
			amount, err := strconv.ParseFloat(rawAmount, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", rawAmount)
			}
			req.Amount = domain.Amount(amount)
			if exogeno, _ := cmd.Flags().GetBool("exogeno"); exogeno {
				req.Source = domain.SourceExogeno
			}

			item, err := a.itemService(kind).Create(ctx, req)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s %q (%s)\n", singular, item.Concept, formatAmount(item.Amount.Float64()))
			return nil
		},
	}
	addCmd.Flags().String("declaration", "", "declaration id")
	addCmd.Flags().String("concept", "", "concept")
	addCmd.Flags().String("amount", "", "amount (plain number)")
	addCmd.Flags().Bool("exogeno", false, "mark as imported from an exogenous file")
	_ = addCmd.MarkFlagRequired("declaration")
	_ = addCmd.MarkFlagRequired("concept")
	_ = addCmd.MarkFlagRequired("amount")

	editCmd := &cobra.Command{
		Use:   fmt.Sprintf("edit <%s-id>", singular),
		Short: fmt.Sprintf("Edit an %s's concept or amount", singular),
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

			svc := a.itemService(kind)
			item, err := svc.FindOne(ctx, args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("concept") {
				item.Concept, _ = cmd.Flags().GetString("concept")
			}
			if cmd.Flags().Changed("amount") {
				rawAmount, _ := cmd.Flags().GetString("amount")
				amount, err := strconv.ParseFloat(rawAmount, 64)
				if err != nil {
					return fmt.Errorf("invalid amount %q", rawAmount)
				}
				item.Amount = domain.Amount(amount)
			}

			updated, err := svc.Update(ctx, item.ID, *item)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %q (%s)\n", updated.Concept, formatAmount(updated.Amount.Float64()))
			return nil
		},
	}
	editCmd.Flags().String("concept", "", "concept")
	editCmd.Flags().String("amount", "", "amount (plain number)")

	removeCmd := &cobra.Command{
		Use:   fmt.Sprintf("remove <%s-id>", singular),
		Short: fmt.Sprintf("Remove an %s", singular),
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
			if err := a.itemService(kind).Remove(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Removed.")
			return nil
		},
	}

	parent.AddCommand(listCmd, addCmd, editCmd, removeCmd)
	return parent
}

func init() {
	rootCmd.AddCommand(
		newItemCommand("assets", "asset", domain.KindAsset),
		newItemCommand("incomes", "income", domain.KindIncome),
		newItemCommand("liabilities", "liability", domain.KindLiability),
	)
}
