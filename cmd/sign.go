/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/neekunjshah/petty-cash/internal/capture"
	"github.com/spf13/cobra"
)

// signCmd represents the sign command
var signCmd = &cobra.Command{
	Use:   "sign <strokes.json>",
	Short: "Render a stroke file to a signature value",
	Long: `Replay a JSON stroke file on a signature surface and print the
resulting PNG data URL, the same value the capture form submits.

Stroke file format:
  {"width": 300, "height": 120, "strokes": [[x0, y0, x1, y1, ...], ...]}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open stroke file: %w", err)
		}
		defer f.Close()

		file, err := capture.ReadStrokes(f)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		session := capture.NewSession()
		surface, err := session.Attach(name, file.Rect)
		if err != nil {
			return err
		}
		if err := surface.Replay(file.Strokes); err != nil {
			return err
		}

		value, ok := session.Form().Get(surface.FieldName())
		if !ok {
			return fmt.Errorf("stroke file produced no signature")
		}

		if field, _ := cmd.Flags().GetBool("field"); field {
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", surface.FieldName(), value)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().String("name", "recipient", "Surface name")
	signCmd.Flags().Bool("field", false, "Print as form field assignment")
}
