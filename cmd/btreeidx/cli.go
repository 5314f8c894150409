package main

import (
	"errors"
	"fmt"
	"strconv"

	"btreeidx/pkg/index"
	"btreeidx/pkg/records"

	"github.com/spf13/cobra"
)

// ErrBadInput reports a command-line argument that does not parse as a
// nonnegative 64-bit integer.
var ErrBadInput = errors.New("btreeidx: key and value must be nonnegative integers")

var rootCmd = &cobra.Command{
	Use:           "btreeidx",
	Short:         "A disk-resident B-tree key/value index",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(createCmd, insertCmd, searchCmd, loadCmd, printCmd, extractCmd)
}

func parseKey(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrBadInput)
	}
	return v, nil
}

var createCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create a new, empty index file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := index.Create(args[0])
		if err != nil {
			return err
		}
		return h.Close()
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert <file> <key> <value>",
	Short: "Insert a key/value pair into an index",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args[1])
		if err != nil {
			return err
		}
		value, err := parseKey(args[2])
		if err != nil {
			return err
		}

		h, err := index.Open(args[0])
		if err != nil {
			return err
		}
		defer h.Close()

		return h.Insert(key, value)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <file> <key>",
	Short: "Search an index for a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args[1])
		if err != nil {
			return err
		}

		h, err := index.Open(args[0])
		if err != nil {
			return err
		}
		defer h.Close()

		result, err := h.Search(key)
		if err != nil {
			return err
		}
		if result.IsNone() {
			return fmt.Errorf("key %d not found", key)
		}
		fmt.Printf("%d %d\n", result.Value.Key, result.Value.Value)
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load <file> <records-file>",
	Short: "Bulk-insert (key,value) pairs from a delimited record file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := index.Open(args[0])
		if err != nil {
			return err
		}
		defer h.Close()

		return records.Load(args[1], func(key, value uint64) error {
			if err := h.Insert(key, value); err != nil {
				log.Errorf("insert %d,%d: %v", key, value, err)
				return err
			}
			return nil
		})
	},
}

var printCmd = &cobra.Command{
	Use:   "print <file>",
	Short: "Print all pairs in an index in ascending key order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := index.Open(args[0])
		if err != nil {
			return err
		}
		defer h.Close()

		for k, v := range h.IterateInOrder() {
			fmt.Printf("%d %d\n", k, v)
		}
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <file> <out-file>",
	Short: "Export all pairs in an index to a new delimited record file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := index.Open(args[0])
		if err != nil {
			return err
		}
		defer h.Close()

		return records.Extract(args[1], h.IterateInOrder())
	},
}
