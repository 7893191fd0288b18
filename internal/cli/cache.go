package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/moonlayout/pkg/cache"
	"github.com/matzehuels/moonlayout/pkg/errors"
	"github.com/matzehuels/moonlayout/pkg/extract"
)

// cacheCommand creates the snapshot store management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage stored frame snapshots",
	}

	cmd.AddCommand(c.cacheShowCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheShowCommand creates the "cache show" subcommand.
func (c *CLI) cacheShowCommand() *cobra.Command {
	var jsonOut string

	cmd := &cobra.Command{
		Use:   "show <scene> [frame]",
		Short: "Print a stored snapshot, the latest one by default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, ch, err := c.connectStore(cmd)
			if err != nil {
				return err
			}
			defer ch.Close()

			var snap *extract.Snapshot
			if len(args) == 2 {
				n, perr := strconv.ParseUint(args[1], 10, 64)
				if perr != nil {
					return errors.New(errors.ErrCodeInvalidInput, "frame must be a number, got %q", args[1])
				}
				snap, err = store.Get(ctx, args[0], n)
			} else {
				snap, err = store.Latest(ctx, args[0])
			}
			if err != nil {
				return err
			}
			defer snap.Release()

			if jsonOut != "" {
				return writeSnapshotJSON(snap, jsonOut)
			}
			fmt.Println(StyleTitle.Render(fmt.Sprintf("%s frame %d", snap.Scene, snap.Frame)))
			printDetail("Stored %s (run %s)", snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.ID)
			fmt.Println(renderNodeTable(nil, snap))
			return nil
		},
	}

	cmd.Flags().StringVarP(&jsonOut, "json", "o", "", "write the snapshot as JSON to this file")
	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all snapshots from the local file store",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			ch, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			fc := ch.(*cache.FileCache)
			count := fc.Len()
			if err := fc.Clear(); err != nil {
				return fmt.Errorf("clear %s: %w", dir, err)
			}

			printSuccess("Cleared %d stored snapshots", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the local snapshot store directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
