package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// EnvCredentialsProvider reads AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY
// (and AWS_SESSION_TOKEN) from the environment on every call. Nothing is cached.
type EnvCredentialsProvider struct{}

// Retrieve implements aws.CredentialsProvider.
func (EnvCredentialsProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	env, err := awsconfig.NewEnvConfig()
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("failed to read environment: %w", err)
	}
	if !env.Credentials.HasKeys() {
		return aws.Credentials{}, ErrMissingCredentials
	}
	return env.Credentials, nil
}

var _ aws.CredentialsProvider = EnvCredentialsProvider{}
