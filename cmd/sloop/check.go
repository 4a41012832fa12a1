package sloop

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/railwayapp/sloop/internal/lint"
	"github.com/railwayapp/sloop/internal/service"
)

type checkResult struct {
	path     string
	err      error
	findings []lint.Finding
}

var checkCmd = &cobra.Command{
	Use:   "check <conf>...",
	Short: "Validate configuration files without building or installing anything",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		results := make([]checkResult, len(args))

		// Failures are recorded per file and never cancel the other checks,
		// so workers always return nil.
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, path := range args {
			i, path := i, path
			g.Go(func() error {
				results[i] = checkResult{path: path}
				rec, err := a.loader.Load(path)
				if err != nil {
					results[i].err = err
					return nil
				}
				if _, err := service.NewPlan(rec, a.builder.Latest(rec.Name)); err != nil {
					results[i].err = err
					return nil
				}
				results[i].findings = lint.Lint(rec)
				return nil
			})
		}
		_ = g.Wait() // workers never fail

		out := cmd.OutOrStdout()
		failed := 0
		for _, result := range results {
			if result.err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s: %v\n", result.path, result.err)
				continue
			}
			fmt.Fprintf(out, "ok   %s\n", result.path)
			for _, finding := range result.findings {
				fmt.Fprintf(out, "     warning: %s\n", finding)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d configurations invalid", failed, len(args))
		}
		return nil
	},
}
