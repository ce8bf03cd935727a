package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancing"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"

	"github.com/prodassist/infractl/internal/resource"
)

type elbAPI interface {
	DescribeLoadBalancers(ctx context.Context, in *elasticloadbalancing.DescribeLoadBalancersInput, opts ...func(*elasticloadbalancing.Options)) (*elasticloadbalancing.DescribeLoadBalancersOutput, error)
	DeleteLoadBalancer(ctx context.Context, in *elasticloadbalancing.DeleteLoadBalancerInput, opts ...func(*elasticloadbalancing.Options)) (*elasticloadbalancing.DeleteLoadBalancerOutput, error)
}

type elbv2API interface {
	DescribeLoadBalancers(ctx context.Context, in *elasticloadbalancingv2.DescribeLoadBalancersInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeLoadBalancersOutput, error)
	DeleteLoadBalancer(ctx context.Context, in *elasticloadbalancingv2.DeleteLoadBalancerInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DeleteLoadBalancerOutput, error)
}

func (c *Client) discoverLoadBalancersV2(ctx context.Context) ([]resource.Handle, error) {
	var handles []resource.Handle
	paginator := elasticloadbalancingv2.NewDescribeLoadBalancersPaginator(c.elbv2Client, &elasticloadbalancingv2.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list load balancers: %w", err)
		}
		for _, lb := range page.LoadBalancers {
			handles = append(handles, resource.Handle{
				Kind:  resource.KindLoadBalancerV2,
				ID:    aws.ToString(lb.LoadBalancerArn),
				State: resource.StatePresent,
			})
		}
	}
	return handles, nil
}

func (c *Client) probeLoadBalancerV2(ctx context.Context, arn string) (resource.State, error) {
	out, err := c.elbv2Client.DescribeLoadBalancers(ctx, &elasticloadbalancingv2.DescribeLoadBalancersInput{
		LoadBalancerArns: []string{arn},
	})
	if err != nil {
		if IsNotFound(err) {
			return resource.StateAbsent, nil
		}
		return resource.StateUnknown, fmt.Errorf("failed to describe load balancer: %w", err)
	}
	if len(out.LoadBalancers) == 0 {
		return resource.StateAbsent, nil
	}
	return resource.StatePresent, nil
}

func (c *Client) deleteLoadBalancerV2(ctx context.Context, arn string) error {
	_, err := c.elbv2Client.DeleteLoadBalancer(ctx, &elasticloadbalancingv2.DeleteLoadBalancerInput{
		LoadBalancerArn: aws.String(arn),
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete load balancer: %w", err)
	}
	return nil
}

func (c *Client) discoverClassicLoadBalancers(ctx context.Context) ([]resource.Handle, error) {
	out, err := c.elbClient.DescribeLoadBalancers(ctx, &elasticloadbalancing.DescribeLoadBalancersInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list classic load balancers: %w", err)
	}
	handles := make([]resource.Handle, 0, len(out.LoadBalancerDescriptions))
	for _, lb := range out.LoadBalancerDescriptions {
		handles = append(handles, resource.Handle{
			Kind:  resource.KindLoadBalancerClassic,
			ID:    aws.ToString(lb.LoadBalancerName),
			State: resource.StatePresent,
		})
	}
	return handles, nil
}

func (c *Client) probeClassicLoadBalancer(ctx context.Context, name string) (resource.State, error) {
	out, err := c.elbClient.DescribeLoadBalancers(ctx, &elasticloadbalancing.DescribeLoadBalancersInput{
		LoadBalancerNames: []string{name},
	})
	if err != nil {
		if IsNotFound(err) {
			return resource.StateAbsent, nil
		}
		return resource.StateUnknown, fmt.Errorf("failed to describe classic load balancer: %w", err)
	}
	if len(out.LoadBalancerDescriptions) == 0 {
		return resource.StateAbsent, nil
	}
	return resource.StatePresent, nil
}

func (c *Client) deleteClassicLoadBalancer(ctx context.Context, name string) error {
	_, err := c.elbClient.DeleteLoadBalancer(ctx, &elasticloadbalancing.DeleteLoadBalancerInput{
		LoadBalancerName: aws.String(name),
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete classic load balancer: %w", err)
	}
	return nil
}
