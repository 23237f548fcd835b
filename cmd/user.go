/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"

	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/container"
	"github.com/neekunjshah/petty-cash/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Example: `  petty-cash user create --username alice --email alice@example.com \
    --password s3cretpass --name "Alice Smith" --role employee`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		req := &service.CreateAccountRequest{}
		req.Username, _ = cmd.Flags().GetString("username")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")
		req.FullName, _ = cmd.Flags().GetString("name")
		req.Role, _ = cmd.Flags().GetString("role")

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctr, err := container.NewContainer(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		account, err := ctr.AccountService().Create(ctx, req)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"id":       account.ID,
			"username": account.Username,
			"role":     account.Role,
		}).Info("account created")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().String("username", "", "Username (required)")
	userCreateCmd.Flags().String("email", "", "Email address (required)")
	userCreateCmd.Flags().String("password", "", "Password, at least 8 characters (required)")
	userCreateCmd.Flags().String("name", "", "Full name")
	userCreateCmd.Flags().String("role", string(auth.RoleEmployee), "Role: employee or senior")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
}
