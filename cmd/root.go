/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/neekunjshah/petty-cash/internal/api"
	"github.com/neekunjshah/petty-cash/internal/config"
	"github.com/neekunjshah/petty-cash/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "petty-cash",
	Short: "Petty cash expense approval server",
	Long: `Petty Cash is a web application for submitting and approving
petty-cash expenses. Employees submit expenses carrying handwritten
signatures; seniors approve or reject them; records export as CSV or
per-record PDF vouchers.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.petty-cash)")
}

// GetRootCmd 返回根命令(用于测试)
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig 加载配置并初始化日志
func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	api.SetLogger(logger)
	service.SetLogger(logger)

	return cfg, logger, nil
}
