/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/capture"
	"github.com/neekunjshah/petty-cash/internal/container"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// 演示账户默认密码
const seedPassword = "password123"

var seedAccountsList = []service.CreateAccountRequest{
	{Username: "employee", Email: "employee@example.com", FullName: "Demo Employee", Role: string(auth.RoleEmployee)},
	{Username: "senior", Email: "senior@example.com", FullName: "Demo Senior", Role: string(auth.RoleSenior)},
}

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo accounts",
	Long: `Create one employee and one senior demo account (password: password123).
Existing accounts are left untouched. With --demo a pending expense with
replayed signatures is submitted as the demo employee.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctr, err := container.NewContainer(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		demo, _ := cmd.Flags().GetBool("demo")
		return seedAccounts(ctx, ctr, logger, demo)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Bool("demo", false, "Also submit a pending demo expense")
}

// seedAccounts 创建演示账户,已存在的账户跳过
func seedAccounts(ctx context.Context, ctr *container.Container, logger *logrus.Logger, demo bool) error {
	accounts := ctr.AccountService()

	var employee *model.AccountModel
	for i := range seedAccountsList {
		req := seedAccountsList[i]
		req.Password = seedPassword

		account, err := accounts.Create(ctx, &req)
		switch {
		case errors.Is(err, service.ErrConflict):
			logger.WithField("username", req.Username).Debug("seed account already exists")
			continue
		case err != nil:
			return fmt.Errorf("failed to seed account %s: %w", req.Username, err)
		}
		logger.WithFields(logrus.Fields{
			"username": account.Username,
			"role":     account.Role,
		}).Info("seed account created")

		if account.Role == auth.RoleEmployee {
			employee = account
		}
	}

	if !demo {
		return nil
	}
	if employee == nil {
		logger.Info("demo employee already existed, skipping demo expense")
		return nil
	}

	signatures, err := demoSignatures()
	if err != nil {
		return err
	}
	expense, err := ctr.ExpenseService().Create(ctx, employee.Principal(), &service.CreateExpenseRequest{
		Purpose:       "Office supplies",
		Amount:        decimal.RequireFromString("42.50"),
		RecipientName: "Corner Stationery",
		Signatures:    signatures,
	})
	if err != nil {
		return fmt.Errorf("failed to create demo expense: %w", err)
	}
	logger.WithField("expense_id", expense.ID).Info("demo expense submitted")
	return nil
}

// demoSignatures 在内存画板上回放笔画,得到三处提交签名
func demoSignatures() (map[model.SignatureSlot]string, error) {
	session := capture.NewSession()
	rect := capture.Rect{Width: 300, Height: 120}
	strokes := []capture.Stroke{
		{{X: 20, Y: 80}, {X: 60, Y: 30}, {X: 100, Y: 90}, {X: 140, Y: 35}},
		{{X: 160, Y: 70}, {X: 220, Y: 60}, {X: 280, Y: 75}},
	}

	out := make(map[model.SignatureSlot]string)
	for _, slot := range model.CreationSlots() {
		surface, err := session.Attach(string(slot), rect)
		if err != nil {
			return nil, err
		}
		if err := surface.Replay(strokes); err != nil {
			return nil, fmt.Errorf("failed to draw %s signature: %w", slot, err)
		}
		value, ok := session.Form().Get(surface.FieldName())
		if !ok {
			return nil, fmt.Errorf("%s signature was not captured", slot)
		}
		out[slot] = value
	}
	return out, nil
}
