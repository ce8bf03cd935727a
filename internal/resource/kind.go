// Package resource defines the resource kinds managed by infractl, their
// lifecycle states, and the fixed dependency graph used to order teardown.
package resource

import "time"

// Kind identifies a managed resource type.
type Kind string

const (
	KindInstance            Kind = "ec2-instance"
	KindNodeGroup           Kind = "eks-nodegroup"
	KindCluster             Kind = "eks-cluster"
	KindRegistry            Kind = "ecr-repository"
	KindLoadBalancerV2      Kind = "load-balancer"
	KindLoadBalancerClassic Kind = "classic-load-balancer"
	KindAutoScalingGroup    Kind = "autoscaling-group"
	KindNatGateway          Kind = "nat-gateway"
	KindElasticAddress      Kind = "elastic-ip"
	KindStack               Kind = "cloudformation-stack"
)

// Kinds lists every managed kind in canonical teardown order. The order is
// stable so plans are deterministic for kinds with no edge between them.
var Kinds = []Kind{
	KindStack,
	KindNodeGroup,
	KindCluster,
	KindRegistry,
	KindInstance,
	KindLoadBalancerV2,
	KindLoadBalancerClassic,
	KindAutoScalingGroup,
	KindNatGateway,
	KindElasticAddress,
}

// State is the observed lifecycle state of a resource. It is always
// re-queried from the provider, never cached across runs.
type State string

const (
	StateUnknown  State = "unknown"
	StatePresent  State = "present"
	StateDeleting State = "deleting"
	StateDeleted  State = "deleted"
	StateAbsent   State = "absent"
)

// Gone reports whether the state is a terminal "no longer exists" state.
func (s State) Gone() bool {
	return s == StateDeleted || s == StateAbsent
}

// Handle identifies a live resource: its kind, its name or ARN, and the
// state observed at probe time.
type Handle struct {
	Kind  Kind
	ID    string
	State State
}

type kindAttrs struct {
	awaited       bool
	pollInterval  time.Duration
	deleteTimeout time.Duration
}

// Deletion semantics per kind. Awaited kinds delete asynchronously on the
// provider side and must reach a terminal state before dependents proceed.
var attrs = map[Kind]kindAttrs{
	KindInstance:            {},
	KindNodeGroup:           {awaited: true, pollInterval: 30 * time.Second, deleteTimeout: 20 * time.Minute},
	KindCluster:             {awaited: true, pollInterval: 30 * time.Second, deleteTimeout: 20 * time.Minute},
	KindRegistry:            {},
	KindLoadBalancerV2:      {},
	KindLoadBalancerClassic: {},
	KindAutoScalingGroup:    {},
	KindNatGateway:          {awaited: true, pollInterval: 15 * time.Second, deleteTimeout: 10 * time.Minute},
	KindElasticAddress:      {},
	KindStack:               {awaited: true, pollInterval: 30 * time.Second, deleteTimeout: 30 * time.Minute},
}

// Awaited reports whether deletion of this kind must be waited on before
// dependent kinds are processed.
func (k Kind) Awaited() bool { return attrs[k].awaited }

// PollInterval returns the probe interval used while waiting on this kind.
func (k Kind) PollInterval() time.Duration {
	if d := attrs[k].pollInterval; d > 0 {
		return d
	}
	return 10 * time.Second
}

// DeleteTimeout returns the wait budget for this kind's deletion.
func (k Kind) DeleteTimeout() time.Duration {
	if d := attrs[k].deleteTimeout; d > 0 {
		return d
	}
	return 5 * time.Minute
}

func (k Kind) String() string { return string(k) }

// Valid reports whether k is a known managed kind.
func (k Kind) Valid() bool {
	_, ok := attrs[k]
	return ok
}
