// Package cli implements the infractl command tree. Commands collect
// operator intent (scope, confirmation, flags), build the cloud client,
// and hand off to the engine and reconciler packages.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/prodassist/infractl/internal/logging"
	"github.com/prodassist/infractl/internal/resource"
)

var (
	flagRegion     string
	flagCluster    string
	flagRepository string
	flagStack      string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "infractl",
	Short: "Lifecycle controller for the product assistant's AWS footprint",
	Long: `Infractl provisions and tears down the AWS resources behind the
product assistant workload: the EKS cluster and its node groups, the ECR
registry, load balancers, autoscaling groups, EC2 instances, NAT gateways,
elastic IPs, and the eksctl CloudFormation stack. It also reconciles the
Kubernetes secret the workload reads its credentials from.

Teardown is dependency-ordered and idempotent: resources that are already
gone count as done, and a second run over the same scope is a no-op.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(flagLogLevel)
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// The dependency table is fixed at compile time; a cycle is a
	// programming error, not an operator error.
	if err := resource.ValidateGraph(); err != nil {
		panic(err)
	}

	rootCmd.PersistentFlags().StringVar(&flagRegion, "region", "us-east-1", "AWS region")
	rootCmd.PersistentFlags().StringVar(&flagCluster, "cluster", "product-assistant", "EKS cluster name")
	rootCmd.PersistentFlags().StringVar(&flagRepository, "repository", "product-assistant", "ECR repository name")
	rootCmd.PersistentFlags().StringVar(&flagStack, "stack", "eksctl-product-assistant-cluster", "CloudFormation stack name")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(teardownCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(versionCmd)
}
