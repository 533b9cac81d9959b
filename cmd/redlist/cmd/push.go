package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push <key> <value...>",
	Short: "Append values to a list",
	Long:  "Append one or more values to the tail of the list stored at <key>.",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) (err error) {
	l, err := openList(args[0])
	if err != nil {
		return err
	}
	defer func() {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	values := make([]any, len(args)-1)
	for i, arg := range args[1:] {
		values[i] = arg
	}

	if err := l.Extend(context.Background(), values...); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	n, err := l.Len(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Pushed %d values. Length: %d\n", len(values), n)
	return nil
}
