package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-formupload/internal/auth"
	"github.com/prn-tf/alexander-formupload/internal/domain"
	"github.com/prn-tf/alexander-formupload/internal/metrics"
	"github.com/prn-tf/alexander-formupload/internal/policy"
	"github.com/prn-tf/alexander-formupload/internal/repository"
	"github.com/prn-tf/alexander-formupload/internal/resource"
)

// Expiry limits for upload policies.
const (
	MinFormExpiry = 1 * time.Second
	MaxFormExpiry = 7 * 24 * time.Hour
)

// MaxPostObjectSize is the largest object S3 accepts in a single POST upload.
// It bounds content-length-range when only a minimum is given.
const MaxPostObjectSize int64 = 5 << 30

// DefaultHostTemplate is the S3 host for a region. "{region}" is substituted.
const DefaultHostTemplate = "s3-{region}.amazonaws.com"

// FormService builds signed browser upload forms.
type FormService struct {
	credentials   aws.CredentialsProvider
	store         repository.IssuanceStore
	metrics       *metrics.Metrics
	now           func() time.Time
	service       string
	hostTemplate  string
	defaultExpiry time.Duration
	maxSize       int64
	logger        zerolog.Logger
}

// FormConfig contains configuration for the form service.
type FormConfig struct {
	// Service is the signing service name.
	Service string

	// HostTemplate builds the upload host; "{region}" is substituted.
	HostTemplate string

	// DefaultExpiry applies when a request does not set one.
	DefaultExpiry time.Duration

	// MaxContentLength caps uploads when a request sets no range. Zero disables it.
	MaxContentLength int64
}

// DefaultFormConfig returns default form configuration.
func DefaultFormConfig() FormConfig {
	return FormConfig{
		Service:       auth.ServiceS3,
		HostTemplate:  DefaultHostTemplate,
		DefaultExpiry: policy.DefaultExpiration,
	}
}

// FormOption customizes a FormService.
type FormOption func(*FormService)

// WithCredentials replaces the environment credentials provider.
func WithCredentials(provider aws.CredentialsProvider) FormOption {
	return func(s *FormService) {
		s.credentials = provider
	}
}

// WithIssuanceStore records every issued form in store.
func WithIssuanceStore(store repository.IssuanceStore) FormOption {
	return func(s *FormService) {
		s.store = store
	}
}

// WithMetrics reports issued and failed forms.
func WithMetrics(m *metrics.Metrics) FormOption {
	return func(s *FormService) {
		s.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) FormOption {
	return func(s *FormService) {
		s.now = now
	}
}

// NewFormService creates a new FormService.
func NewFormService(config FormConfig, logger zerolog.Logger, opts ...FormOption) *FormService {
	defaults := DefaultFormConfig()
	if config.Service == "" {
		config.Service = defaults.Service
	}
	if config.HostTemplate == "" {
		config.HostTemplate = defaults.HostTemplate
	}
	if config.DefaultExpiry <= 0 {
		config.DefaultExpiry = defaults.DefaultExpiry
	}

	s := &FormService{
		credentials:   EnvCredentialsProvider{},
		now:           time.Now,
		service:       config.Service,
		hostTemplate:  config.HostTemplate,
		defaultExpiry: config.DefaultExpiry,
		maxSize:       config.MaxContentLength,
		logger:        logger.With().Str("service", "form").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadInput contains the data needed to build a signed upload form.
type UploadInput struct {
	// Bucket is the target bucket. It may be omitted when Key is set.
	Bucket *resource.Bucket

	// Key fixes the object key. Mutually exclusive with KeyPrefix.
	Key *resource.Key

	// KeyPrefix lets the browser pick the file name under a folder.
	// An empty prefix with no Key uploads to the bucket root.
	KeyPrefix string

	// ACL is the canned ACL. Empty means domain.DefaultCannedACL.
	ACL domain.CannedACL

	// SuccessURL is where the browser goes after a successful upload.
	SuccessURL string

	// Metadata is stored with the object as x-amz-meta-* fields.
	Metadata map[string][]string

	// MinContentLength and MaxContentLength bound the file size.
	// A zero MaxContentLength falls back to the service limit.
	MinContentLength int64
	MaxContentLength int64

	// Expiry is how long the policy stays valid. Zero uses the default.
	Expiry time.Duration
}

// target resolves the bucket and the client handle used for the build.
func (in UploadInput) target() (*resource.Bucket, resource.ClientProvider, error) {
	if in.Key != nil && in.KeyPrefix != "" {
		return nil, nil, fmt.Errorf("%w: key and key prefix are mutually exclusive", domain.ErrConfiguration)
	}

	bucket := in.Bucket
	if in.Key != nil {
		if bucket == nil {
			bucket = in.Key.Bucket()
		} else if bucket.Name() != in.Key.Bucket().Name() {
			return nil, nil, fmt.Errorf("%w: key belongs to bucket %s, not %s",
				domain.ErrConfiguration, in.Key.Bucket().Name(), bucket.Name())
		}
	}
	if bucket == nil {
		return nil, nil, fmt.Errorf("%w: bucket is required", domain.ErrConfiguration)
	}

	if in.Key != nil {
		return bucket, in.Key, nil
	}
	return bucket, bucket, nil
}

// BuildSignedUploadForm builds a policy for the upload, signs it with the
// current credentials and returns the form a browser must submit.
func (s *FormService) BuildSignedUploadForm(ctx context.Context, input UploadInput) (*domain.UploadForm, error) {
	form, err := s.buildSignedUploadForm(ctx, input)
	if err != nil {
		s.metrics.FormFailed(failureReason(err))
		return nil, err
	}
	return form, nil
}

func (s *FormService) buildSignedUploadForm(ctx context.Context, input UploadInput) (*domain.UploadForm, error) {
	start := time.Now()

	// Validate input
	bucket, target, err := input.target()
	if err != nil {
		return nil, err
	}

	acl, err := domain.ParseCannedACL(string(input.ACL))
	if err != nil {
		return nil, err
	}

	expiry := input.Expiry
	if expiry == 0 {
		expiry = s.defaultExpiry
	}
	if expiry < MinFormExpiry || expiry > MaxFormExpiry {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidValue, ErrInvalidExpiration)
	}

	// Resolve the client and its region
	client, err := target.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: no client for bucket %s: %w", domain.ErrConfiguration, bucket.Name(), err)
	}
	region := client.Options().Region
	if region == "" {
		return nil, fmt.Errorf("%w: client for bucket %s has no region", domain.ErrConfiguration, bucket.Name())
	}

	// Read credentials once for this build
	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrCryptoPrecondition, err)
	}

	// Capture the request time once; scope, x-amz-date and expiration all use it
	now := s.now().UTC()

	scope, err := auth.NewCredentialScope(now, region, s.service)
	if err != nil {
		return nil, err
	}

	b, err := s.newBuilder(bucket.Name(), input, acl, scope.Credential(creds.AccessKeyID), creds.SessionToken, now)
	if err != nil {
		return nil, err
	}
	b.Freeze()

	doc := b.BuildPolicy(now, expiry)
	encoded, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternalError, err)
	}

	key, _ := b.Field(policy.FieldKey)
	signed, err := auth.SignPolicy(auth.SignPolicyInput{
		AccessKeyID: creds.AccessKeyID,
		SecretKey:   creds.SecretAccessKey,
		Scope:       scope,
		RequestTime: now,
		Policy:      encoded,
		Key:         key,
	})
	if err != nil {
		return nil, err
	}

	fields := b.Fields()
	for name, value := range signed.Fields {
		fields[name] = value
	}

	form := &domain.UploadForm{
		Action:     s.uploadURL(bucket.Name(), region),
		Method:     domain.FormMethod,
		EncType:    domain.FormEncType,
		Fields:     fields,
		Expiration: doc.Expiration,
	}

	form.ID = s.recordIssuance(ctx, &domain.Issuance{
		ID:         uuid.NewString(),
		Bucket:     bucket.Name(),
		Key:        key,
		ACL:        acl,
		Region:     region,
		Credential: signed.Credential,
		IssuedAt:   now,
		ExpiresAt:  doc.Expiration,
	})

	s.metrics.FormIssued(region, acl.String(), time.Since(start))

	s.logger.Debug().
		Str("access_key_id", creds.AccessKeyID).
		Str("bucket", bucket.Name()).
		Str("key", key).
		Str("region", region).
		Str("acl", acl.String()).
		Time("expires_at", doc.Expiration).
		Msg("built signed upload form")

	return form, nil
}

// newBuilder applies the input to a fresh policy builder.
func (s *FormService) newBuilder(bucket string, input UploadInput, acl domain.CannedACL, credential, sessionToken string, now time.Time) (*policy.Builder, error) {
	b := policy.NewBuilder(bucket)

	var err error
	if input.Key != nil {
		err = b.SetKey(input.Key.Name())
	} else {
		err = b.SetKeyPrefix(input.KeyPrefix)
	}
	if err != nil {
		return nil, err
	}

	if err := b.SetACL(acl); err != nil {
		return nil, err
	}

	if input.SuccessURL != "" {
		if err := b.SetSuccessURL(input.SuccessURL); err != nil {
			return nil, err
		}
	}

	// Sorted so the same input always yields the same policy.
	names := make([]string, 0, len(input.Metadata))
	for name := range input.Metadata {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := b.SetMeta(name, input.Metadata[name]...); err != nil {
			return nil, err
		}
	}

	minSize, maxSize := input.MinContentLength, input.MaxContentLength
	if maxSize == 0 {
		maxSize = s.maxSize
	}
	if maxSize == 0 && minSize > 0 {
		maxSize = MaxPostObjectSize
	}
	if maxSize > 0 || minSize > 0 {
		if err := b.SetContentLengthRange(minSize, maxSize); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidValue, err)
		}
	}

	if sessionToken != "" {
		if err := b.SetField(policy.FieldSecurityToken, sessionToken); err != nil {
			return nil, err
		}
	}

	if err := b.SetField(policy.FieldAlgorithm, auth.SignV4Algorithm); err != nil {
		return nil, err
	}
	if err := b.SetField(policy.FieldCredential, credential); err != nil {
		return nil, err
	}
	if err := b.SetField(policy.FieldDate, now.Format(auth.ISO8601BasicFormat)); err != nil {
		return nil, err
	}

	return b, nil
}

// uploadURL returns https://{bucket}.{host}.
func (s *FormService) uploadURL(bucket, region string) string {
	return "https://" + bucket + "." + strings.ReplaceAll(s.hostTemplate, "{region}", region)
}

// recordIssuance stores the issuance and returns its id, or "" if it was not stored.
func (s *FormService) recordIssuance(ctx context.Context, issuance *domain.Issuance) string {
	if s.store == nil {
		return ""
	}
	if err := s.store.Save(ctx, issuance); err != nil {
		s.logger.Warn().
			Err(err).
			Str("bucket", issuance.Bucket).
			Str("issuance_id", issuance.ID).
			Msg("failed to record issued form")
		return ""
	}
	return issuance.ID
}

// GetIssuance returns a previously issued form record.
func (s *FormService) GetIssuance(ctx context.Context, id string) (*domain.Issuance, error) {
	if s.store == nil || id == "" {
		return nil, repository.ErrIssuanceNotFound
	}
	return s.store.Get(ctx, id)
}

// VerifyUploadInput describes a submitted upload to check.
type VerifyUploadInput struct {
	Bucket        string
	Fields        map[string]string
	Filename      string
	ContentLength int64
}

// VerifyUpload checks a submitted form against the current credentials,
// the way S3 would on receipt.
func (s *FormService) VerifyUpload(ctx context.Context, input VerifyUploadInput) (*auth.VerifiedForm, error) {
	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrCryptoPrecondition, err)
	}

	verified, err := auth.VerifyPostForm(auth.VerifyInput{
		Bucket:        input.Bucket,
		Fields:        input.Fields,
		Filename:      input.Filename,
		ContentLength: input.ContentLength,
		SecretKey:     creds.SecretAccessKey,
		Now:           s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if verified.Credential.AccessKey != creds.AccessKeyID {
		return nil, fmt.Errorf("%w: form was signed with a different access key", auth.ErrSignatureDoesNotMatch)
	}

	s.logger.Debug().
		Str("bucket", input.Bucket).
		Str("key", verified.Key).
		Msg("verified upload form")

	return verified, nil
}

// failureReason labels a build error for metrics.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration"
	case errors.Is(err, domain.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, auth.ErrCryptoPrecondition):
		return "crypto_precondition"
	default:
		return "internal"
	}
}
