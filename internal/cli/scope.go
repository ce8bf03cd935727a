package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/prodassist/infractl/internal/resource"
)

// scopeEverything covers every managed kind and demands the strongest
// confirmation token.
const scopeEverything = "everything"

// scopes maps the named teardown scopes to the kinds they cover.
var scopes = map[string][]resource.Kind{
	scopeEverything: resource.Kinds,
	"stack":         {resource.KindStack},
	"cluster":       {resource.KindNodeGroup, resource.KindCluster},
	"registry":      {resource.KindRegistry},
	"compute":       {resource.KindInstance, resource.KindAutoScalingGroup},
	"network": {
		resource.KindLoadBalancerV2,
		resource.KindLoadBalancerClassic,
		resource.KindNatGateway,
		resource.KindElasticAddress,
	},
}

// resolveScope maps a --scope flag value to its kinds.
func resolveScope(name string) ([]resource.Kind, error) {
	kinds, ok := scopes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown scope %q (valid: %s)", name, strings.Join(scopeNames(), ", "))
	}
	return kinds, nil
}

func scopeNames() []string {
	names := make([]string, 0, len(scopes))
	for name := range scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// selectScope prompts the operator for a teardown scope.
func selectScope() (string, error) {
	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Teardown scope").
				Description("Which resources should be deleted?").
				Options(
					huh.NewOption("Everything (full teardown, dependency-ordered)", scopeEverything),
					huh.NewOption("CloudFormation stack only", "stack"),
					huh.NewOption("EKS cluster and node groups", "cluster"),
					huh.NewOption("ECR registry", "registry"),
					huh.NewOption("Compute (EC2 instances, autoscaling groups)", "compute"),
					huh.NewOption("Network (load balancers, NAT gateways, elastic IPs)", "network"),
				).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("scope selection failed: %w", err)
	}
	return choice, nil
}

// confirmTeardown demands the exact typed token before a destructive run:
// "DELETE" for the everything scope, "yes" for a single scope. It returns
// false when the operator types anything else.
func confirmTeardown(scopeName string) (bool, error) {
	token := "yes"
	warning := fmt.Sprintf("This permanently deletes the %s resources in %s.", scopeName, flagRegion)
	if scopeName == scopeEverything {
		token = "DELETE"
		warning = fmt.Sprintf("This permanently deletes EVERY managed resource in %s.", flagRegion)
	}

	var typed string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(warning).
				Description(fmt.Sprintf("Type %q to continue.", token)).
				Value(&typed),
		),
	)
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return typed == token, nil
}
