package connection

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures clients built by NewS3ClientFactory.
type S3Options struct {
	// Endpoint is an optional custom endpoint for S3-compatible services.
	Endpoint string

	// AccessKeyID and SecretAccessKey set static credentials on the client.
	// When empty the SDK default credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// UsePathStyle enables path-style addressing.
	UsePathStyle bool
}

// NewS3ClientFactory returns a ClientFactory backed by the AWS SDK default config.
func NewS3ClientFactory(opts S3Options) ClientFactory {
	return func(ctx context.Context, region string) (*s3.Client, error) {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(region),
		}

		// Add credentials if provided
		if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
			))
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		return s3.NewFromConfig(cfg, func(o *s3.Options) {
			if opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(opts.Endpoint)
			}
			o.UsePathStyle = opts.UsePathStyle
		}), nil
	}
}

// NewStaticClientFactory returns a ClientFactory that builds clients from
// options alone, without loading shared config files. Useful in tests and
// for callers that manage credentials themselves.
func NewStaticClientFactory(creds aws.CredentialsProvider) ClientFactory {
	return func(ctx context.Context, region string) (*s3.Client, error) {
		return s3.New(s3.Options{
			Region:      region,
			Credentials: creds,
		}), nil
	}
}
