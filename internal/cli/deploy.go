package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prodassist/infractl/internal/secrets"
)

var (
	deployKubeconfig      string
	deploySecretName      string
	deploySecretNamespace string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Reconcile the workload's Kubernetes secret",
	Long: `Replaces the application secret with fresh values from the
environment, then verifies the key set by reading it back. The workload
picks the new values up on its next restart.

Required environment variables:
  GROQ_API_KEY, ASTRA_DB_API_ENDPOINT,
  ASTRA_DB_APPLICATION_TOKEN, ASTRA_DB_KEYSPACE`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringVar(&deployKubeconfig, "kubeconfig", "", "Path to kubeconfig (default: standard loading rules)")
	deployCmd.Flags().StringVar(&deploySecretName, "secret-name", secrets.DefaultName, "Name of the application secret")
	deployCmd.Flags().StringVar(&deploySecretNamespace, "namespace", secrets.DefaultNamespace, "Namespace of the application secret")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	spec := secrets.FromEnv(deploySecretName, deploySecretNamespace, os.Getenv)

	reconciler, err := secrets.NewForKubeconfig(deployKubeconfig)
	if err != nil {
		return err
	}

	fmt.Printf("Reconciling secret %s/%s... ", spec.Namespace, spec.Name)
	if err := reconciler.Reconcile(ctx, spec); err != nil {
		fmt.Println("FAILED")
		var missing *secrets.MissingValueError
		if errors.As(err, &missing) {
			return fmt.Errorf("set the missing environment variable(s) and re-run: %w", err)
		}
		return err
	}
	fmt.Println("OK")

	fmt.Println("\nSecret updated. Restart the workload to pick up the new values:")
	fmt.Printf("  kubectl rollout restart deployment -n %s\n", spec.Namespace)
	return nil
}
