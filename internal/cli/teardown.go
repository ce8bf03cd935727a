package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prodassist/infractl/internal/cloud"
	"github.com/prodassist/infractl/internal/engine"
	"github.com/prodassist/infractl/internal/resource"
)

var (
	teardownScope       string
	teardownAutoApprove bool
	teardownDryRun      bool
	teardownParallelism int
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Delete managed AWS resources in dependency order",
	Long: `Deletes the selected scope of resources, waiting on asynchronous
deletions before dependents are touched. Resources that no longer exist
are reported as not-found, never as failures, so re-running after a
partial teardown finishes the job.

Without --scope the command presents an interactive menu. Destructive
runs require an exact typed confirmation: "DELETE" for the everything
scope, "yes" for a single scope.`,
	RunE: runTeardown,
}

func init() {
	teardownCmd.Flags().StringVar(&teardownScope, "scope", "", "Teardown scope (everything, stack, cluster, registry, compute, network)")
	teardownCmd.Flags().BoolVar(&teardownAutoApprove, "auto-approve", false, "Skip the typed confirmation prompt")
	teardownCmd.Flags().BoolVar(&teardownDryRun, "dry-run", false, "Plan and probe only, delete nothing")
	teardownCmd.Flags().IntVar(&teardownParallelism, "parallelism", 1, "Concurrent deletions within a dependency tier")
}

func runTeardown(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	scopeName := teardownScope
	if scopeName == "" {
		var err error
		if scopeName, err = selectScope(); err != nil {
			return err
		}
	}
	kinds, err := resolveScope(scopeName)
	if err != nil {
		return err
	}

	plan, err := resource.Plan(kinds)
	if err != nil {
		return err
	}
	renderPlan(scopeName, plan)

	if !teardownAutoApprove && !teardownDryRun {
		ok, err := confirmTeardown(scopeName)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Teardown cancelled.")
			return nil
		}
	}

	opts := []cloud.Option{}
	if teardownDryRun {
		opts = append(opts, cloud.WithDryRun())
	}
	client, err := cloud.New(ctx, flagRegion, clientNames(), opts...)
	if err != nil {
		return err
	}

	engOpts := []engine.Option{
		engine.WithCallback(renderEvent),
		engine.WithParallelism(teardownParallelism),
	}
	if teardownDryRun {
		engOpts = append(engOpts, engine.WithDryRun())
	}
	eng := engine.New(client, engOpts...)

	report, err := eng.Run(ctx, kinds)
	if report != nil {
		renderReport(report)
	}
	return err
}

func clientNames() cloud.Names {
	return cloud.Names{
		Cluster:    flagCluster,
		Repository: flagRepository,
		Stack:      flagStack,
	}
}
