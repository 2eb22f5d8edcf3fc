package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kittclouds/gmgen/internal/dispatch"
	"github.com/kittclouds/gmgen/internal/store"
	"github.com/kittclouds/gmgen/pkg/diag"
)

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Store every loaded library bundle in the SQLite store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := c.storeDSN()
			if dsn == "" {
				return fmt.Errorf("import needs a store: pass --db or set store.dsn")
			}
			lib, err := c.loadLibraries()
			if err != nil {
				return err
			}

			st, err := store.NewSQLiteStoreWithDSN(dsn)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := store.ImportLibrary(st, lib)
			if err != nil {
				return err
			}
			total, err := st.CountBundles()
			if err != nil {
				return err
			}
			c.logger.Info("Imported bundles", zap.String("dsn", dsn), zap.Int("stored", n), zap.Int("total", total))
			_, err = okColor.Fprintf(cmd.OutOrStdout(), "stored %d bundles (%d in store)\n", n, total)
			return err
		},
	}
}

func (c *cli) execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec [request.json|-]",
		Short: "Run a JSON batch of engine actions",
		Long: `exec reads a request of the form {"actions": [{"op": ..., "args": ..., "save_as": ...}]}
from a file, or from stdin when the argument is "-" or absent, and prints the
JSON response. Ops: generate, step, missing, overlaps, unreferenced, cycles, define,
set_value, set_option, add_data.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			gen, err := c.newGenerator(cmd)
			if err != nil {
				return err
			}

			resp, err := dispatch.NewEngine(gen, diag.Default()).Execute(req)
			if err != nil {
				return err
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, resp, "", "  "); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return err
		},
	}
}

func readRequest(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return data, nil
}
