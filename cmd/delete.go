package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georss/internal/vector"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete a dataset with the driver that owns it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := vector.Default().Delete(vector.DefaultFs(), args[0]); err != nil {
			return err
		}
		zap.L().Info("dataset deleted", zap.String("path", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
