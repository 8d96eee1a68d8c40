package portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/config"
)

// AnalysisFile is the object name of the full JSON snapshot.
const AnalysisFile = "analysis.json"

// ErrPublishingDisabled is returned when no bucket is configured.
var ErrPublishingDisabled = errors.New("publishing is not configured")

// Uploader puts one object. *manager.Uploader satisfies it.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Publication lists what a publish uploaded.
type Publication struct {
	Bucket string   `json:"bucket"`
	Prefix string   `json:"prefix"`
	Keys   []string `json:"keys"`
}

type object struct {
	name        string
	body        []byte
	contentType string
}

// Publisher uploads a run's snapshot and exports to object storage.
type Publisher struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewPublisher creates a publisher over an existing uploader.
func NewPublisher(uploader Uploader, bucket, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{
		uploader: uploader,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		log:      log.With().Str("component", "publisher").Logger(),
	}
}

// NewS3Publisher builds a publisher for an S3-compatible bucket. Static
// credentials are used when configured, the default AWS chain otherwise.
// A custom endpoint switches to path-style addressing.
func NewS3Publisher(ctx context.Context, cfg config.S3Config, log zerolog.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrPublishingDisabled
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewPublisher(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, log), nil
}

// Publish uploads analysis.json and every CSV export under prefix/<run id>/.
func (p *Publisher) Publish(ctx context.Context, a *Analysis) (*Publication, error) {
	if p == nil || p.uploader == nil {
		return nil, ErrPublishingDisabled
	}

	snapshot, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis %s: %w", a.ID, err)
	}

	exports := Exports(a)
	objects := []object{{AnalysisFile, snapshot, "application/json"}}
	for _, name := range []string{CorrelationExportFile, FactorsExportFile, GroupsExportFile} {
		if body, ok := exports[name]; ok {
			objects = append(objects, object{name, []byte(body), "text/csv"})
		}
	}

	pub := &Publication{
		Bucket: p.bucket,
		Prefix: path.Join(p.prefix, a.ID),
		Keys:   make([]string, 0, len(objects)),
	}
	for _, obj := range objects {
		key := path.Join(pub.Prefix, obj.name)
		_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(obj.body),
			ContentType: aws.String(obj.contentType),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", key, err)
		}
		pub.Keys = append(pub.Keys, key)
	}

	p.log.Info().
		Str("run_id", a.ID).
		Str("bucket", p.bucket).
		Str("prefix", pub.Prefix).
		Int("objects", len(pub.Keys)).
		Msg("Published analysis run")

	return pub, nil
}
