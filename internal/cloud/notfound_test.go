package cloud

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFound_KnownCodes(t *testing.T) {
	codes := []string{
		"ResourceNotFoundException",
		"RepositoryNotFoundException",
		"LoadBalancerNotFound",
		"AccessPointNotFoundException",
		"InvalidInstanceID.NotFound",
		"NatGatewayNotFound",
		"InvalidAllocationID.NotFound",
	}
	for _, code := range codes {
		err := &smithy.GenericAPIError{Code: code, Message: "nope"}
		assert.True(t, IsNotFound(err), "code %s should map to not-found", code)
	}
}

func TestIsNotFound_CloudFormationValidationError(t *testing.T) {
	missing := &smithy.GenericAPIError{
		Code:    "ValidationError",
		Message: "Stack with id eksctl-demo does not exist",
	}
	assert.True(t, IsNotFound(missing))

	other := &smithy.GenericAPIError{
		Code:    "ValidationError",
		Message: "Template format error",
	}
	assert.False(t, IsNotFound(other))
}

func TestIsNotFound_WrappedAndSentinel(t *testing.T) {
	inner := &smithy.GenericAPIError{Code: "ResourceNotFoundException"}
	assert.True(t, IsNotFound(fmt.Errorf("failed to describe: %w", inner)))
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", ErrNotFound)))
}

func TestIsNotFound_OtherErrors(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("connection reset")))
	assert.False(t, IsNotFound(&smithy.GenericAPIError{Code: "Throttling"}))
}

func TestIsAlreadyExists(t *testing.T) {
	assert.True(t, isAlreadyExists(&smithy.GenericAPIError{Code: "AlreadyExistsException"}))
	assert.True(t, isAlreadyExists(&smithy.GenericAPIError{Code: "RepositoryAlreadyExistsException"}))
	assert.False(t, isAlreadyExists(errors.New("boom")))
}
