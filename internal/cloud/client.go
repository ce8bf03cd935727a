// Package cloud wraps the AWS service clients used by infractl with
// kind-oriented describe/list/delete/create operations. All "resource not
// found" responses are mapped to a non-error Absent/NotFound outcome.
package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"

	"github.com/prodassist/infractl/internal/logging"
	"github.com/prodassist/infractl/internal/resource"
)

// Names holds the identifiers of the singleton resources the controller
// manages. Listable kinds (instances, load balancers, ASGs, NAT gateways,
// addresses) are discovered by region-wide listing instead.
type Names struct {
	Cluster    string
	Repository string
	Stack      string
}

// Client issues live calls against the AWS account. Every mutating call
// has real billing consequences unless DryRun is set.
type Client struct {
	names  Names
	dryRun bool

	asgClient   autoscalingAPI
	cfnClient   cloudformationAPI
	ec2Client   ec2API
	ecrClient   ecrAPI
	eksClient   eksAPI
	elbClient   elbAPI
	elbv2Client elbv2API
}

// Option configures a Client.
type Option func(*Client)

// WithDryRun makes every mutating operation log and return without
// calling the provider.
func WithDryRun() Option {
	return func(c *Client) { c.dryRun = true }
}

// New loads the ambient AWS configuration (access key, secret, region)
// and builds the service clients. Credentials are resolved eagerly so a
// missing credential chain fails before any mutation is attempted.
func New(ctx context.Context, region string, names Names, opts ...Option) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, &PreconditionError{Item: "AWS credentials", Err: err}
	}

	c := &Client{
		names:       names,
		asgClient:   autoscaling.NewFromConfig(cfg),
		cfnClient:   cloudformation.NewFromConfig(cfg),
		ec2Client:   ec2.NewFromConfig(cfg),
		ecrClient:   ecr.NewFromConfig(cfg),
		eksClient:   eks.NewFromConfig(cfg),
		elbClient:   elasticloadbalancing.NewFromConfig(cfg),
		elbv2Client: elasticloadbalancingv2.NewFromConfig(cfg),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PreconditionError is a fatal failure detected before any mutation.
type PreconditionError struct {
	Item string
	Err  error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition failed: %s: %v", e.Item, e.Err)
	}
	return fmt.Sprintf("precondition failed: %s", e.Item)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// Discover returns handles for every live resource of the given kind.
// Singleton kinds resolve to at most one handle (the configured name);
// listable kinds are enumerated region-wide and filtered to live states.
func (c *Client) Discover(ctx context.Context, kind resource.Kind) ([]resource.Handle, error) {
	switch kind {
	case resource.KindStack:
		return c.discoverStack(ctx)
	case resource.KindNodeGroup:
		return c.discoverNodeGroups(ctx)
	case resource.KindCluster:
		return c.discoverCluster(ctx)
	case resource.KindRegistry:
		return c.discoverRepository(ctx)
	case resource.KindInstance:
		return c.discoverInstances(ctx)
	case resource.KindLoadBalancerV2:
		return c.discoverLoadBalancersV2(ctx)
	case resource.KindLoadBalancerClassic:
		return c.discoverClassicLoadBalancers(ctx)
	case resource.KindAutoScalingGroup:
		return c.discoverAutoScalingGroups(ctx)
	case resource.KindNatGateway:
		return c.discoverNatGateways(ctx)
	case resource.KindElasticAddress:
		return c.discoverElasticAddresses(ctx)
	}
	return nil, fmt.Errorf("unknown resource kind: %s", kind)
}

// Probe re-queries the live state of a single resource. "Not found" is a
// normal outcome (Absent), never an error.
func (c *Client) Probe(ctx context.Context, kind resource.Kind, id string) (resource.State, error) {
	switch kind {
	case resource.KindStack:
		return c.probeStack(ctx, id)
	case resource.KindNodeGroup:
		return c.probeNodeGroup(ctx, id)
	case resource.KindCluster:
		return c.probeCluster(ctx, id)
	case resource.KindRegistry:
		return c.probeRepository(ctx, id)
	case resource.KindInstance:
		return c.probeInstance(ctx, id)
	case resource.KindLoadBalancerV2:
		return c.probeLoadBalancerV2(ctx, id)
	case resource.KindLoadBalancerClassic:
		return c.probeClassicLoadBalancer(ctx, id)
	case resource.KindAutoScalingGroup:
		return c.probeAutoScalingGroup(ctx, id)
	case resource.KindNatGateway:
		return c.probeNatGateway(ctx, id)
	case resource.KindElasticAddress:
		return c.probeElasticAddress(ctx, id)
	}
	return resource.StateUnknown, fmt.Errorf("unknown resource kind: %s", kind)
}

// Delete issues the provider delete for a single resource. Composite
// kinds cancel any in-flight mutation first; the ASG delete is the
// mandatory zero-capacity two-step. Callers must treat ErrNotFound as a
// normal outcome.
func (c *Client) Delete(ctx context.Context, h resource.Handle) error {
	if c.dryRun {
		logging.Info("dry-run: skipping delete", "kind", h.Kind, "id", h.ID)
		return nil
	}
	switch h.Kind {
	case resource.KindStack:
		return c.deleteStack(ctx, h.ID)
	case resource.KindNodeGroup:
		return c.deleteNodeGroup(ctx, h.ID)
	case resource.KindCluster:
		return c.deleteCluster(ctx, h.ID)
	case resource.KindRegistry:
		return c.deleteRepository(ctx, h.ID)
	case resource.KindInstance:
		return c.terminateInstance(ctx, h.ID)
	case resource.KindLoadBalancerV2:
		return c.deleteLoadBalancerV2(ctx, h.ID)
	case resource.KindLoadBalancerClassic:
		return c.deleteClassicLoadBalancer(ctx, h.ID)
	case resource.KindAutoScalingGroup:
		return c.deleteAutoScalingGroup(ctx, h.ID)
	case resource.KindNatGateway:
		return c.deleteNatGateway(ctx, h.ID)
	case resource.KindElasticAddress:
		return c.releaseElasticAddress(ctx, h.ID)
	}
	return fmt.Errorf("unknown resource kind: %s", h.Kind)
}
