package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"physioeval/internal/domain"
)

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}

	addCmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")
			if password == "" {
				return fmt.Errorf("--password is required")
			}

			u, err := a.users.CreateUser(cmd.Context(), args[0], password, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}
	addCmd.Flags().String("password", "", "Account password")
	addCmd.Flags().String("role", domain.RoleCaregiver, "Role: admin or caregiver")
	cmd.AddCommand(addCmd)

	checkCmd := &cobra.Command{
		Use:   "check <username>",
		Short: "Verify a username and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")

			u, err := a.users.Authenticate(cmd.Context(), args[0], password)
			if errors.Is(err, domain.ErrInvalidCredentials) {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}
	checkCmd.Flags().String("password", "", "Account password")
	cmd.AddCommand(checkCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.users.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.Username, u.Role, u.CreatedAt)
			}
			return nil
		},
	})

	return cmd
}
