package cloud

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// ErrNotFound is returned by delete operations when the target resource
// does not exist. It is a normal outcome for a teardown tool, not a
// failure.
var ErrNotFound = errors.New("resource not found")

// notFoundCodes are the provider error codes that mean "the resource does
// not exist" across the services we call.
var notFoundCodes = map[string]bool{
	"ResourceNotFoundException":     true, // EKS
	"RepositoryNotFoundException":   true, // ECR
	"LoadBalancerNotFound":          true, // ELBv2
	"AccessPointNotFoundException":  true, // classic ELB
	"InvalidInstanceID.NotFound":    true, // EC2
	"InvalidInstanceID.Malformed":   true,
	"NatGatewayNotFound":            true,
	"InvalidAllocationID.NotFound":  true,
	"InvalidAddress.NotFound":       true,
	"ChangeSetNotFound":             true,
	"StackNotFoundException":        true,
}

// IsNotFound reports whether err represents a provider "resource not
// found" response. CloudFormation reports a missing stack as a
// ValidationError whose message ends in "does not exist", so the message
// is checked for that service.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	if notFoundCodes[ae.ErrorCode()] {
		return true
	}
	if ae.ErrorCode() == "ValidationError" && strings.Contains(ae.ErrorMessage(), "does not exist") {
		return true
	}
	return false
}

// isAlreadyExists reports whether err means the resource already exists.
// Used by the provision path, where an existing resource is a no-op.
func isAlreadyExists(err error) bool {
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return false
	}
	switch ae.ErrorCode() {
	case "RepositoryAlreadyExistsException", "AlreadyExistsException":
		return true
	}
	return false
}
