package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	alertColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	okColor      = color.New(color.FgGreen)
)

func (c *cli) missingCmd() *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "missing [template]",
		Short: "List %key% selections that never resolve",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := c.newGenerator(cmd)
			if err != nil {
				return err
			}
			lines, err := gen.FindMissingValues(templateArg(args), iterations)
			if err != nil {
				return err
			}
			return printDiagnostics(cmd.OutOrStdout(), lines, "no unresolved selections")
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Resolve iterations (0 = default limit)")
	return cmd
}

func (c *cli) overlapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overlaps",
		Short: "Report definition keys defined by more than one bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := c.newGenerator(cmd)
			if err != nil {
				return err
			}
			return printDiagnostics(cmd.OutOrStdout(), gen.OverlappingDefinitions(), "no overlapping definitions")
		},
	}
}

func (c *cli) unreferencedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unreferenced",
		Short: "List value keys nothing refers to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := c.newGenerator(cmd)
			if err != nil {
				return err
			}
			keys := gen.UnreferencedKeys()
			if len(keys) == 0 {
				_, err := okColor.Fprintln(cmd.OutOrStdout(), "every value key is referenced")
				return err
			}
			for _, k := range keys {
				if _, err := warningColor.Fprintln(cmd.OutOrStdout(), k); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (c *cli) cyclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycles",
		Short: "Report keys whose values select each other without end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := c.newGenerator(cmd)
			if err != nil {
				return err
			}
			return printDiagnostics(cmd.OutOrStdout(), gen.ReferenceCycles(), "no reference cycles")
		},
	}
}

// printDiagnostics colours ALERT lines red and everything else yellow.
func printDiagnostics(w io.Writer, lines []string, clean string) error {
	if len(lines) == 0 {
		_, err := okColor.Fprintln(w, clean)
		return err
	}
	for _, l := range lines {
		c := warningColor
		if strings.HasPrefix(l, "ALERT") {
			c = alertColor
		}
		if _, err := c.Fprintln(w, l); err != nil {
			return fmt.Errorf("write diagnostics: %w", err)
		}
	}
	return nil
}
