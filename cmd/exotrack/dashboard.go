package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the admin dashboard: stats and recent activity",
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

		summary, err := a.overview.Dashboard(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Users:        %d total, %d active, %d inactive (%d admins, %d customers)\n",
			summary.Users.TotalUsers, summary.Users.ActiveUsers, summary.Users.InactiveUsers,
			summary.Users.Admins, summary.Users.Customers)
		fmt.Printf("Declarations: %d total, %d pending, %d completed, %d for the current year\n",
			summary.Declarations.TotalDeclarations, summary.Declarations.Pending,
			summary.Declarations.Completed, summary.Declarations.CurrentYear)

		if len(summary.Recent) == 0 {
			fmt.Println("\nNo recent activity.")
			return nil
		}

		fmt.Println("\nRecent activity:")
		rows := make([][]string, 0, len(summary.Recent))
		for _, e := range summary.Recent {
			rows = append(rows, []string{
				e.UpdatedAt.Format(time.DateTime),
				e.UserFullName,
				fmt.Sprintf("%d", e.TaxableYear),
				string(e.Status),
			})
		}
		table([]string{"WHEN", "CUSTOMER", "YEAR", "STATUS"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
