package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prodassist/infractl/internal/cloud"
	"github.com/prodassist/infractl/internal/engine"
	"github.com/prodassist/infractl/internal/resource"
)

var (
	provisionTemplate string
	provisionDryRun   bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the ECR repository and the CloudFormation stack",
	Long: `Creates the container registry and launches the eksctl-style
CloudFormation stack from a template file, then waits for the stack to
finish creating. Resources that already exist are left untouched.`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&provisionTemplate, "template", "", "Path to the CloudFormation template (required)")
	provisionCmd.Flags().BoolVar(&provisionDryRun, "dry-run", false, "Log intended creates without calling the provider")
	_ = provisionCmd.MarkFlagRequired("template")
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts := []cloud.Option{}
	if provisionDryRun {
		opts = append(opts, cloud.WithDryRun())
	}
	client, err := cloud.New(ctx, flagRegion, clientNames(), opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Creating ECR repository %s... ", flagRepository)
	if err := client.CreateRepository(ctx, flagRepository); err != nil {
		fmt.Println("FAILED")
		return fmt.Errorf("failed to create repository: %w", err)
	}
	fmt.Println("OK")

	fmt.Printf("Creating CloudFormation stack %s... ", flagStack)
	if err := client.CreateStack(ctx, provisionTemplate); err != nil {
		fmt.Println("FAILED")
		return fmt.Errorf("failed to create stack: %w", err)
	}
	fmt.Println("OK")

	if provisionDryRun {
		fmt.Println("Dry run: not waiting for stack creation.")
		return nil
	}

	fmt.Println("Waiting for stack to reach CREATE_COMPLETE (this can take a while)...")
	waiter := engine.NewWaiter(client)
	kind := resource.KindStack
	if err := waiter.Await(ctx, kind, flagStack, resource.StatePresent, kind.DeleteTimeout()); err != nil {
		return fmt.Errorf("stack did not finish creating: %w", err)
	}

	fmt.Println("\nProvision complete. Run 'infractl status' to inspect the account.")
	return nil
}
