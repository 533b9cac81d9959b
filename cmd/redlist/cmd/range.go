package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/listkit/redlist"
)

var rangeCmd = &cobra.Command{
	Use:   "range <key> [start [stop]]",
	Short: "Print a range of a list",
	Long:  "Print the elements of the list stored at <key>, optionally restricted to [start, stop). Negative bounds count from the tail.",
	Args:  cobra.RangeArgs(1, 3),
	RunE:  runRange,
}

func init() {
	rootCmd.AddCommand(rangeCmd)
}

func runRange(cmd *cobra.Command, args []string) (err error) {
	l, err := openList(args[0])
	if err != nil {
		return err
	}
	defer func() {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	s := redlist.NewSlice()
	if len(args) > 1 {
		start, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid start %q: %w", args[1], err)
		}
		s = s.From(start)
	}
	if len(args) > 2 {
		stop, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid stop %q: %w", args[2], err)
		}
		s = s.To(stop)
	}

	values, err := l.Slice(context.Background(), s)
	if err != nil {
		return err
	}
	for _, v := range values {
		fmt.Println(v)
	}
	return nil
}
