package main

import (
	"context"
	"fmt"

	"github.com/exotrack/exotrack-console/internal/controller"
	"github.com/exotrack/exotrack-console/internal/domain"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var declarationsCmd = &cobra.Command{
	Use:     "declarations",
	Aliases: []string{"decl"},
	Short:   "Manage yearly tax declarations",
}

var declarationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List declarations",
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

		userID, _ := cmd.Flags().GetString("user")
		// Customers only see their own declarations, whatever --user says.
		if !a.session.IsAdmin() {
			userID = a.session.User().ID
		}

		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")
		search, _ := cmd.Flags().GetString("search")

		fetch := func(ctx context.Context, q domain.PageQuery, filter string) (domain.Page[domain.Declaration], error) {
			return a.declarations.FindAllWithPagination(ctx, q, filter)
		}
		list := controller.NewList(fetch, controller.MatchDeclaration, perPage, userID, a.logger)

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

		table([]string{"ID", "YEAR", "STATUS", "DESCRIPTION", "UPDATED"}, renderDeclarations(list.Items()))
		pageFooter(list)
		return nil
	},
}

var declarationsShowCmd = &cobra.Command{
	Use:   "show <declaration-id>",
	Short: "Show a declaration with its line items and totals",
	Args:  cobra.ExactArgs(1),
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

		decl, err := a.declarations.FindOne(ctx, args[0])
		if err != nil {
			return err
		}

		// The three collections load concurrently, like the detail view of
		// the web console.
		var assets, incomes, liabilities []domain.LineItem
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			assets, err = a.assets.FindAllByDeclaration(gctx, decl.ID)
			return
		})
		g.Go(func() (err error) {
			incomes, err = a.incomes.FindAllByDeclaration(gctx, decl.ID)
			return
		})
		g.Go(func() (err error) {
			liabilities, err = a.liabilities.FindAllByDeclaration(gctx, decl.ID)
			return
		})
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Printf("Declaration %d  [%s]\n%s\n", decl.TaxableYear, decl.Status, decl.Description)
		for _, section := range []struct {
			title string
			items []domain.LineItem
		}{
			{"ASSETS", assets},
			{"INCOMES", incomes},
			{"LIABILITIES", liabilities},
		} {
			fmt.Printf("\n%s (total %s)\n", section.title, formatAmount(domain.SumAmounts(section.items)))
			if len(section.items) == 0 {
				fmt.Println("  (none)")
				continue
			}
			table([]string{"ID", "CONCEPT", "AMOUNT", "SOURCE"}, renderItems(section.items))
		}

		net := domain.SumAmounts(assets) - domain.SumAmounts(liabilities)
		fmt.Printf("\nNet worth: %s   Total income: %s\n", formatAmount(net), formatAmount(domain.SumAmounts(incomes)))
		return nil
	},
}

var declarationsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new declaration for a customer",
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

		req := domain.CreateDeclarationRequest{}
		req.UserID, _ = cmd.Flags().GetString("user")
		req.TaxableYear, _ = cmd.Flags().GetInt("year")
		req.Description, _ = cmd.Flags().GetString("description")

		used, err := a.declarations.UsedYears(ctx, req.UserID)
		if err != nil {
			return err
		}
		for _, y := range used {
			if y == req.TaxableYear {
				return fmt.Errorf("customer already has a declaration for %d (existing: %v)", req.TaxableYear, used)
			}
		}

		decl, err := a.declarations.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("Created declaration %s for year %d\n", decl.ID, decl.TaxableYear)
		return nil
	},
}

var declarationsUpdateCmd = &cobra.Command{
	Use:   "update <declaration-id>",
	Short: "Update a declaration's status or description",
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

		decl, err := a.declarations.FindOne(ctx, args[0])
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("status") {
			raw, _ := cmd.Flags().GetString("status")
			status, err := domain.ParseDeclarationStatus(raw)
			if err != nil {
				return err
			}
			decl.Status = status
		}
		if cmd.Flags().Changed("description") {
			decl.Description, _ = cmd.Flags().GetString("description")
		}

		updated, err := a.declarations.Update(ctx, decl.ID, *decl)
		if err != nil {
			return err
		}
		fmt.Printf("Declaration %d is now %s\n", updated.TaxableYear, updated.Status)
		return nil
	},
}

var declarationsDeleteCmd = &cobra.Command{
	Use:   "delete <declaration-id>",
	Short: "Delete a declaration and all its line items",
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
		if err := a.declarations.Remove(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

var declarationsYearsCmd = &cobra.Command{
	Use:   "years <customer-id>",
	Short: "Show which taxable years a customer has already filed",
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

		years, err := a.declarations.UsedYears(ctx, args[0])
		if err != nil {
			return err
		}
		if len(years) == 0 {
			fmt.Println("No declarations yet.")
			return nil
		}
		for _, y := range years {
			fmt.Println(y)
		}
		return nil
	},
}

func init() {
	declarationsListCmd.Flags().String("user", "", "scope to one customer id (admin only)")
	declarationsListCmd.Flags().Int("page", 1, "page to show")
	declarationsListCmd.Flags().Int("per-page", 10, "rows per page")
	declarationsListCmd.Flags().String("search", "", "filter by year, status or description")

	declarationsCreateCmd.Flags().String("user", "", "customer id")
	declarationsCreateCmd.Flags().Int("year", 0, "taxable year")
	declarationsCreateCmd.Flags().String("description", "", "description")
	_ = declarationsCreateCmd.MarkFlagRequired("user")
	_ = declarationsCreateCmd.MarkFlagRequired("year")

	declarationsUpdateCmd.Flags().String("status", "", "PENDING or COMPLETED")
	declarationsUpdateCmd.Flags().String("description", "", "description")

	declarationsCmd.AddCommand(
		declarationsListCmd,
		declarationsShowCmd,
		declarationsCreateCmd,
		declarationsUpdateCmd,
		declarationsDeleteCmd,
		declarationsYearsCmd,
	)
	rootCmd.AddCommand(declarationsCmd)
}
