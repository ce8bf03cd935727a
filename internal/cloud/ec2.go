package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/prodassist/infractl/internal/resource"
)

type ec2API interface {
	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, opts ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, opts ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	DescribeNatGateways(ctx context.Context, in *ec2.DescribeNatGatewaysInput, opts ...func(*ec2.Options)) (*ec2.DescribeNatGatewaysOutput, error)
	DeleteNatGateway(ctx context.Context, in *ec2.DeleteNatGatewayInput, opts ...func(*ec2.Options)) (*ec2.DeleteNatGatewayOutput, error)
	DescribeAddresses(ctx context.Context, in *ec2.DescribeAddressesInput, opts ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error)
	ReleaseAddress(ctx context.Context, in *ec2.ReleaseAddressInput, opts ...func(*ec2.Options)) (*ec2.ReleaseAddressOutput, error)
}

// liveInstanceStates are the instance states that count as "present".
// Terminated and shutting-down instances do not.
var liveInstanceStates = []string{"pending", "running", "stopping", "stopped"}

func (c *Client) discoverInstances(ctx context.Context) ([]resource.Handle, error) {
	var handles []resource.Handle
	paginator := ec2.NewDescribeInstancesPaginator(c.ec2Client, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("instance-state-name"), Values: liveInstanceStates},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				handles = append(handles, resource.Handle{
					Kind:  resource.KindInstance,
					ID:    aws.ToString(inst.InstanceId),
					State: resource.StatePresent,
				})
			}
		}
	}
	return handles, nil
}

func (c *Client) probeInstance(ctx context.Context, id string) (resource.State, error) {
	out, err := c.ec2Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		if IsNotFound(err) {
			return resource.StateAbsent, nil
		}
		return resource.StateUnknown, fmt.Errorf("failed to describe instance: %w", err)
	}
	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return resource.StateAbsent, nil
	}
	switch out.Reservations[0].Instances[0].State.Name {
	case types.InstanceStateNameTerminated:
		return resource.StateDeleted, nil
	case types.InstanceStateNameShuttingDown:
		return resource.StateDeleting, nil
	}
	return resource.StatePresent, nil
}

func (c *Client) terminateInstance(ctx context.Context, id string) error {
	_, err := c.ec2Client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to terminate instance: %w", err)
	}
	return nil
}

func (c *Client) discoverNatGateways(ctx context.Context) ([]resource.Handle, error) {
	out, err := c.ec2Client.DescribeNatGateways(ctx, &ec2.DescribeNatGatewaysInput{
		Filter: []types.Filter{
			{Name: aws.String("state"), Values: []string{"pending", "available"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list NAT gateways: %w", err)
	}
	handles := make([]resource.Handle, 0, len(out.NatGateways))
	for _, gw := range out.NatGateways {
		handles = append(handles, resource.Handle{
			Kind:  resource.KindNatGateway,
			ID:    aws.ToString(gw.NatGatewayId),
			State: resource.StatePresent,
		})
	}
	return handles, nil
}

func (c *Client) probeNatGateway(ctx context.Context, id string) (resource.State, error) {
	out, err := c.ec2Client.DescribeNatGateways(ctx, &ec2.DescribeNatGatewaysInput{
		NatGatewayIds: []string{id},
	})
	if err != nil {
		if IsNotFound(err) {
			return resource.StateAbsent, nil
		}
		return resource.StateUnknown, fmt.Errorf("failed to describe NAT gateway: %w", err)
	}
	if len(out.NatGateways) == 0 {
		return resource.StateAbsent, nil
	}
	switch out.NatGateways[0].State {
	case types.NatGatewayStateDeleted:
		return resource.StateDeleted, nil
	case types.NatGatewayStateDeleting:
		return resource.StateDeleting, nil
	}
	return resource.StatePresent, nil
}

func (c *Client) deleteNatGateway(ctx context.Context, id string) error {
	_, err := c.ec2Client.DeleteNatGateway(ctx, &ec2.DeleteNatGatewayInput{
		NatGatewayId: aws.String(id),
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete NAT gateway: %w", err)
	}
	return nil
}

func (c *Client) discoverElasticAddresses(ctx context.Context) ([]resource.Handle, error) {
	out, err := c.ec2Client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list elastic addresses: %w", err)
	}
	handles := make([]resource.Handle, 0, len(out.Addresses))
	for _, addr := range out.Addresses {
		handles = append(handles, resource.Handle{
			Kind:  resource.KindElasticAddress,
			ID:    aws.ToString(addr.AllocationId),
			State: resource.StatePresent,
		})
	}
	return handles, nil
}

func (c *Client) probeElasticAddress(ctx context.Context, id string) (resource.State, error) {
	out, err := c.ec2Client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{
		AllocationIds: []string{id},
	})
	if err != nil {
		if IsNotFound(err) {
			return resource.StateAbsent, nil
		}
		return resource.StateUnknown, fmt.Errorf("failed to describe elastic address: %w", err)
	}
	if len(out.Addresses) == 0 {
		return resource.StateAbsent, nil
	}
	return resource.StatePresent, nil
}

// releaseElasticAddress releases the allocation. A release that fails
// because the address is still associated is reported by the caller and
// never forced: force-disassociating risks orphaning a NAT gateway that
// is mid-deletion.
func (c *Client) releaseElasticAddress(ctx context.Context, id string) error {
	_, err := c.ec2Client.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{
		AllocationId: aws.String(id),
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to release elastic address: %w", err)
	}
	return nil
}
