package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShubhamKarampure/HealthyTray/internal/domain/staff"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		Long:  "Create a staff account directly in the database. Use this to bootstrap the first Manager.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in staff.RegisterInput
			in.Name, _ = cmd.Flags().GetString("name")
			in.Email, _ = cmd.Flags().GetString("email")
			in.Password, _ = cmd.Flags().GetString("password")
			in.Role, _ = cmd.Flags().GetString("role")
			in.ContactInfo, _ = cmd.Flags().GetString("contact")

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			svcs, _ := newServices(pool, cfg)

			u, err := svcs.staff.Register(ctx, in)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("email", "", "Login email")
	createCmd.Flags().String("password", "", "Password (at least 8 characters)")
	createCmd.Flags().String("role", "Manager", "Manager, Pantry or Delivery")
	createCmd.Flags().String("contact", "", "Contact information")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")

	cmd.AddCommand(createCmd)
	return cmd
}
