package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"

	"github.com/prodassist/infractl/internal/resource"
)

type autoscalingAPI interface {
	DescribeAutoScalingGroups(ctx context.Context, in *autoscaling.DescribeAutoScalingGroupsInput, opts ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error)
	UpdateAutoScalingGroup(ctx context.Context, in *autoscaling.UpdateAutoScalingGroupInput, opts ...func(*autoscaling.Options)) (*autoscaling.UpdateAutoScalingGroupOutput, error)
	DeleteAutoScalingGroup(ctx context.Context, in *autoscaling.DeleteAutoScalingGroupInput, opts ...func(*autoscaling.Options)) (*autoscaling.DeleteAutoScalingGroupOutput, error)
}

func (c *Client) discoverAutoScalingGroups(ctx context.Context) ([]resource.Handle, error) {
	var handles []resource.Handle
	paginator := autoscaling.NewDescribeAutoScalingGroupsPaginator(c.asgClient, &autoscaling.DescribeAutoScalingGroupsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list auto scaling groups: %w", err)
		}
		for _, group := range page.AutoScalingGroups {
			handles = append(handles, resource.Handle{
				Kind:  resource.KindAutoScalingGroup,
				ID:    aws.ToString(group.AutoScalingGroupName),
				State: resource.StatePresent,
			})
		}
	}
	return handles, nil
}

func (c *Client) probeAutoScalingGroup(ctx context.Context, name string) (resource.State, error) {
	out, err := c.asgClient.DescribeAutoScalingGroups(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
		AutoScalingGroupNames: []string{name},
	})
	if err != nil {
		return resource.StateUnknown, fmt.Errorf("failed to describe auto scaling group: %w", err)
	}
	if len(out.AutoScalingGroups) == 0 {
		return resource.StateAbsent, nil
	}
	if aws.ToString(out.AutoScalingGroups[0].Status) == "Delete in progress" {
		return resource.StateDeleting, nil
	}
	return resource.StatePresent, nil
}

// deleteAutoScalingGroup forces capacity to zero before requesting the
// delete. The provider refuses to delete a group that still has live
// instances attached, so this is a mandatory two-step sequence.
func (c *Client) deleteAutoScalingGroup(ctx context.Context, name string) error {
	_, err := c.asgClient.UpdateAutoScalingGroup(ctx, &autoscaling.UpdateAutoScalingGroupInput{
		AutoScalingGroupName: aws.String(name),
		MinSize:              aws.Int32(0),
		MaxSize:              aws.Int32(0),
		DesiredCapacity:      aws.Int32(0),
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to zero auto scaling group capacity: %w", err)
	}

	_, err = c.asgClient.DeleteAutoScalingGroup(ctx, &autoscaling.DeleteAutoScalingGroupInput{
		AutoScalingGroupName: aws.String(name),
		ForceDelete:          aws.Bool(true),
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete auto scaling group: %w", err)
	}
	return nil
}
