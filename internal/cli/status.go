package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prodassist/infractl/internal/cloud"
	"github.com/prodassist/infractl/internal/resource"
)

var statusScope string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live state of managed resources",
	Long: `Probes every resource kind in the selected scope and prints what
actually exists in the account right now. Read-only; no confirmation.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusScope, "scope", "everything", "Scope to inspect (everything, stack, cluster, registry, compute, network)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	kinds, err := resolveScope(statusScope)
	if err != nil {
		return err
	}

	client, err := cloud.New(ctx, flagRegion, clientNames())
	if err != nil {
		return err
	}

	fmt.Printf("Resources in %s:\n", flagRegion)
	found := 0
	for _, kind := range kinds {
		handles, err := client.Discover(ctx, kind)
		if err != nil {
			fmt.Printf("  %-24s %sdiscovery failed: %v%s\n", kind, colorRed, err, colorReset)
			continue
		}
		if len(handles) == 0 {
			fmt.Printf("  %-24s (none)\n", kind)
			continue
		}
		for _, h := range handles {
			state := h.State
			if state == resource.StateUnknown {
				if probed, err := client.Probe(ctx, h.Kind, h.ID); err == nil {
					state = probed
				}
			}
			fmt.Printf("  %-24s %-50s %s\n", h.Kind, h.ID, renderState(state))
			found++
		}
	}
	fmt.Printf("\n%d resource(s) found.\n", found)
	return nil
}
