// Package kinesis delivers change events to Amazon Kinesis streams in
// bounded PutRecords batches, retrying rejected records until the per-window
// attempt budget runs out.
package kinesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awskinesis "github.com/aws/aws-sdk-go-v2/service/kinesis"
	"go.uber.org/zap"

	"github.com/Kubha99/debezium-server/pkg/connector"
)

const (
	optRegion   = "region"
	optEndpoint = "endpoint"
	optProfile  = "credentials_profile"
	optNullKey  = "null_key"
)

const (
	// maxAttempts bounds publish attempts per window. Transport-level
	// failures and partial record failures share the one counter.
	maxAttempts = 5
	// retryInterval is the fixed pause between attempts.
	retryInterval = time.Second
)

// API is the subset of the Kinesis client the sink uses.
type API interface {
	PutRecords(ctx context.Context, params *awskinesis.PutRecordsInput, optFns ...func(*awskinesis.Options)) (*awskinesis.PutRecordsOutput, error)
}

var _ API = (*awskinesis.Client)(nil)

// Sink publishes change events to Kinesis. It implements
// connector.ChangeConsumer. The zero value is usable after Open; Logger,
// Mapper, and Client may be set before Open to override the defaults.
type Sink struct {
	// Logger receives retry and rejection warnings. Defaults to a no-op.
	Logger *zap.Logger
	// Mapper resolves logical destinations to stream names. Defaults to
	// the identity mapping.
	Mapper connector.StreamNameMapper
	// Client, when set, is used as-is and Open skips client construction.
	Client API

	spec    connector.Spec
	client  API
	nullKey string
	logger  *zap.Logger
	mapper  connector.StreamNameMapper
	sleep   func(ctx context.Context, d time.Duration) error
}

// Open prepares the sink. Without a pre-built Client it constructs one from
// the spec options: region (required), endpoint (optional override, e.g. a
// localstack URL), credentials_profile (optional shared-config profile).
// null_key overrides the partition key used for key-less events.
func (s *Sink) Open(ctx context.Context, spec connector.Spec) error {
	s.spec = spec

	s.logger = s.Logger
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.mapper = s.Mapper
	if s.mapper == nil {
		s.mapper = connector.IdentityMapper
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	s.nullKey = spec.Options[optNullKey]
	if s.nullKey == "" {
		s.nullKey = defaultNullKey
	}

	if s.Client != nil {
		s.client = s.Client
		s.logger.Info("using custom configured kinesis client")
		return nil
	}

	region := strings.TrimSpace(spec.Options[optRegion])
	if region == "" {
		return errors.New("kinesis region is required")
	}
	endpoint := strings.TrimSpace(spec.Options[optEndpoint])
	profile := strings.TrimSpace(spec.Options[optProfile])

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	s.client = awskinesis.NewFromConfig(awsCfg, func(o *awskinesis.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	s.logger.Info("using default kinesis client",
		zap.String("region", region),
		zap.String("endpoint", endpoint),
	)
	return nil
}

// Close releases the shared client. The SDK client holds no connection state
// that needs explicit shutdown, so this only drops the reference.
func (s *Sink) Close(_ context.Context) error {
	s.client = nil
	return nil
}
