package cloud

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"

	"github.com/prodassist/infractl/internal/logging"
	"github.com/prodassist/infractl/internal/resource"
)

type cloudformationAPI interface {
	DescribeStacks(ctx context.Context, in *cloudformation.DescribeStacksInput, opts ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	DeleteStack(ctx context.Context, in *cloudformation.DeleteStackInput, opts ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	CreateStack(ctx context.Context, in *cloudformation.CreateStackInput, opts ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	ListChangeSets(ctx context.Context, in *cloudformation.ListChangeSetsInput, opts ...func(*cloudformation.Options)) (*cloudformation.ListChangeSetsOutput, error)
	DeleteChangeSet(ctx context.Context, in *cloudformation.DeleteChangeSetInput, opts ...func(*cloudformation.Options)) (*cloudformation.DeleteChangeSetOutput, error)
}

func (c *Client) discoverStack(ctx context.Context) ([]resource.Handle, error) {
	state, err := c.probeStack(ctx, c.names.Stack)
	if err != nil {
		return nil, err
	}
	return []resource.Handle{{Kind: resource.KindStack, ID: c.names.Stack, State: state}}, nil
}

func (c *Client) probeStack(ctx context.Context, name string) (resource.State, error) {
	out, err := c.cfnClient.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if IsNotFound(err) {
			return resource.StateAbsent, nil
		}
		return resource.StateUnknown, fmt.Errorf("failed to describe stack: %w", err)
	}
	if len(out.Stacks) == 0 {
		return resource.StateAbsent, nil
	}
	switch out.Stacks[0].StackStatus {
	case types.StackStatusDeleteComplete:
		return resource.StateDeleted, nil
	case types.StackStatusDeleteInProgress:
		return resource.StateDeleting, nil
	case types.StackStatusCreateInProgress, types.StackStatusReviewInProgress:
		// Still converging toward existence; not Present until the
		// create completes, but deletable all the same.
		return resource.StateUnknown, nil
	}
	return resource.StatePresent, nil
}

// deleteStack removes any pending change sets before issuing the delete.
// CloudFormation rejects stack deletion while a change set mutation is
// outstanding.
func (c *Client) deleteStack(ctx context.Context, name string) error {
	changeSets, err := c.cfnClient.ListChangeSets(ctx, &cloudformation.ListChangeSetsInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to list change sets: %w", err)
	}
	for _, cs := range changeSets.Summaries {
		logging.Info("cancelling pending change set", "stack", name, "change_set", aws.ToString(cs.ChangeSetName))
		_, err := c.cfnClient.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
			ChangeSetName: cs.ChangeSetId,
		})
		if err != nil && !IsNotFound(err) {
			return fmt.Errorf("failed to delete change set %s: %w", aws.ToString(cs.ChangeSetName), err)
		}
	}

	_, err = c.cfnClient.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(name),
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete stack: %w", err)
	}
	return nil
}

// CreateStack provisions the stack from a local template file. The stack
// creates IAM resources (node roles), so the IAM capabilities are
// acknowledged up front.
func (c *Client) CreateStack(ctx context.Context, templatePath string) error {
	body, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", templatePath, err)
	}
	if c.dryRun {
		logging.Info("dry-run: skipping stack create", "name", c.names.Stack)
		return nil
	}
	_, err = c.cfnClient.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(c.names.Stack),
		TemplateBody: aws.String(string(body)),
		Capabilities: []types.Capability{
			types.CapabilityCapabilityIam,
			types.CapabilityCapabilityNamedIam,
		},
	})
	if err != nil {
		if isAlreadyExists(err) {
			logging.Info("stack already exists", "name", c.names.Stack)
			return nil
		}
		return fmt.Errorf("failed to create stack: %w", err)
	}
	return nil
}
