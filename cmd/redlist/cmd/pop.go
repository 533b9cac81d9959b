package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/listkit/redlist"
)

var popHead bool

var popCmd = &cobra.Command{
	Use:   "pop <key>",
	Short: "Pop a value from a list",
	Long:  "Remove and print the tail element of the list stored at <key>, or the head with --head.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPop,
}

func init() {
	popCmd.Flags().BoolVar(&popHead, "head", false, "pop from the head instead of the tail")
	rootCmd.AddCommand(popCmd)
}

func runPop(cmd *cobra.Command, args []string) (err error) {
	l, err := openList(args[0])
	if err != nil {
		return err
	}
	defer func() {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	index := int64(-1)
	if popHead {
		index = 0
	}

	v, err := l.PopAt(context.Background(), index)
	if errors.Is(err, redlist.ErrIndexOutOfRange) {
		return fmt.Errorf("list %s is empty", args[0])
	}
	if err != nil {
		return err
	}

	fmt.Println(v)
	return nil
}
