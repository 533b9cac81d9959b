package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var lenCmd = &cobra.Command{
	Use:   "len <key>",
	Short: "Print the length of a list",
	Args:  cobra.ExactArgs(1),
	RunE:  runLen,
}

func init() {
	rootCmd.AddCommand(lenCmd)
}

func runLen(cmd *cobra.Command, args []string) (err error) {
	l, err := openList(args[0])
	if err != nil {
		return err
	}
	defer func() {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	n, err := l.Len(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}
