package sloop

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/railwayapp/sloop/internal/export"
)

var printFormat string

var printCmd = &cobra.Command{
	Use:   "print <conf>",
	Short: "Print what deploying a configuration would build and run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.ForFormat(printFormat)
		if err != nil {
			return err
		}

		a := newApp()
		rec, err := a.loader.Load(args[0])
		if err != nil {
			return err
		}
		plan, err := a.compiler.Plan(rec)
		if err != nil {
			return err
		}

		out, err := exporter.Export(plan)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	printCmd.Flags().StringVarP(&printFormat, "format", "f", "script", "output format ("+strings.Join(export.Formats(), ", ")+")")
}
