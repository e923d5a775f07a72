package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProfileConfig is a resolved AWS profile with its SDK configuration and
// initialised service clients.
type ProfileConfig struct {
	// ProfileName is the name from ~/.aws/credentials or "default".
	ProfileName string

	// AccountID is the resolved AWS account ID for this profile (via STS).
	AccountID string

	// Region is the region the stack output bucket lives in.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config

	// Clients holds initialised service clients scoped to Region.
	Clients *ClientSet
}

// AWSClientProvider loads AWS configurations. AWS only backs the stack
// output registry; Azure resources never go through it.
//
// Implementations must use the AWS SDK v2 only. Never call the aws CLI.
type AWSClientProvider interface {
	// LoadProfile returns a ProfileConfig for the named profile in region.
	// Empty strings select the default profile and the profile's region.
	LoadProfile(ctx context.Context, profile, region string) (*ProfileConfig, error)
}
