package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"

	"github.com/prodassist/infractl/internal/logging"
	"github.com/prodassist/infractl/internal/resource"
)

type ecrAPI interface {
	DescribeRepositories(ctx context.Context, in *ecr.DescribeRepositoriesInput, opts ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	DeleteRepository(ctx context.Context, in *ecr.DeleteRepositoryInput, opts ...func(*ecr.Options)) (*ecr.DeleteRepositoryOutput, error)
	CreateRepository(ctx context.Context, in *ecr.CreateRepositoryInput, opts ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error)
}

func (c *Client) discoverRepository(ctx context.Context) ([]resource.Handle, error) {
	state, err := c.probeRepository(ctx, c.names.Repository)
	if err != nil {
		return nil, err
	}
	return []resource.Handle{{Kind: resource.KindRegistry, ID: c.names.Repository, State: state}}, nil
}

func (c *Client) probeRepository(ctx context.Context, name string) (resource.State, error) {
	_, err := c.ecrClient.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{name},
	})
	if err != nil {
		if IsNotFound(err) {
			return resource.StateAbsent, nil
		}
		return resource.StateUnknown, fmt.Errorf("failed to describe ECR repository: %w", err)
	}
	return resource.StatePresent, nil
}

// deleteRepository force-deletes the repository so its images go with it.
func (c *Client) deleteRepository(ctx context.Context, name string) error {
	_, err := c.ecrClient.DeleteRepository(ctx, &ecr.DeleteRepositoryInput{
		RepositoryName: aws.String(name),
		Force:          true,
	})
	if err != nil {
		if IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete ECR repository: %w", err)
	}
	return nil
}

// CreateRepository creates the container registry for the provision path.
// An already-existing repository is treated as success.
func (c *Client) CreateRepository(ctx context.Context, name string) error {
	if c.dryRun {
		logging.Info("dry-run: skipping repository create", "name", name)
		return nil
	}
	_, err := c.ecrClient.CreateRepository(ctx, &ecr.CreateRepositoryInput{
		RepositoryName: aws.String(name),
	})
	if err != nil {
		if isAlreadyExists(err) {
			logging.Info("ECR repository already exists", "name", name)
			return nil
		}
		return fmt.Errorf("failed to create ECR repository: %w", err)
	}
	return nil
}
