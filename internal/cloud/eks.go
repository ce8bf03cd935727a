package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/eks/types"

	"github.com/prodassist/infractl/internal/resource"
)

type eksAPI interface {
	DescribeCluster(ctx context.Context, in *eks.DescribeClusterInput, opts ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
	DeleteCluster(ctx context.Context, in *eks.DeleteClusterInput, opts ...func(*eks.Options)) (*eks.DeleteClusterOutput, error)
	ListNodegroups(ctx context.Context, in *eks.ListNodegroupsInput, opts ...func(*eks.Options)) (*eks.ListNodegroupsOutput, error)
	DescribeNodegroup(ctx context.Context, in *eks.DescribeNodegroupInput, opts ...func(*eks.Options)) (*eks.DescribeNodegroupOutput, error)
	DeleteNodegroup(ctx context.Context, in *eks.DeleteNodegroupInput, opts ...func(*eks.Options)) (*eks.DeleteNodegroupOutput, error)
}

func (c *Client) discoverCluster(ctx context.Context) ([]resource.Handle, error) {
	state, err := c.probeCluster(ctx, c.names.Cluster)
	if err != nil {
		return nil, err
	}
	return []resource.Handle{{Kind: resource.KindCluster, ID: c.names.Cluster, State: state}}, nil
}

func (c *Client) probeCluster(ctx context.Context, name string) (resource.State, error) {
	out, err := c.eksClient.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(name)})
	if err != nil {
		if IsNotFound(err) {
			return resource.StateAbsent, nil
		}
		return resource.StateUnknown, fmt.Errorf("failed to describe EKS cluster: %w", err)
	}
	if out.Cluster.Status == types.ClusterStatusDeleting {
		return resource.StateDeleting, nil
	}
	return resource.StatePresent, nil
}

func (c *Client) deleteCluster(ctx context.Context, name string) error {
	_, err := c.eksClient.DeleteCluster(ctx, &eks.DeleteClusterInput{Name: aws.String(name)})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete EKS cluster: %w", err)
	}
	return nil
}

func (c *Client) discoverNodeGroups(ctx context.Context) ([]resource.Handle, error) {
	out, err := c.eksClient.ListNodegroups(ctx, &eks.ListNodegroupsInput{
		ClusterName: aws.String(c.names.Cluster),
	})
	if err != nil {
		// No cluster means no node groups.
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list node groups: %w", err)
	}
	handles := make([]resource.Handle, 0, len(out.Nodegroups))
	for _, name := range out.Nodegroups {
		handles = append(handles, resource.Handle{
			Kind:  resource.KindNodeGroup,
			ID:    name,
			State: resource.StatePresent,
		})
	}
	return handles, nil
}

func (c *Client) probeNodeGroup(ctx context.Context, name string) (resource.State, error) {
	out, err := c.eksClient.DescribeNodegroup(ctx, &eks.DescribeNodegroupInput{
		ClusterName:   aws.String(c.names.Cluster),
		NodegroupName: aws.String(name),
	})
	if err != nil {
		if IsNotFound(err) {
			return resource.StateAbsent, nil
		}
		return resource.StateUnknown, fmt.Errorf("failed to describe node group: %w", err)
	}
	if out.Nodegroup.Status == types.NodegroupStatusDeleting {
		return resource.StateDeleting, nil
	}
	return resource.StatePresent, nil
}

func (c *Client) deleteNodeGroup(ctx context.Context, name string) error {
	_, err := c.eksClient.DeleteNodegroup(ctx, &eks.DeleteNodegroupInput{
		ClusterName:   aws.String(c.names.Cluster),
		NodegroupName: aws.String(name),
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete node group: %w", err)
	}
	return nil
}
