package portfolio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/factorlens/internal/config"
)

// MockUploader is a mock object storage uploader for testing
type MockUploader struct {
	mock.Mock
	bodies map[string]string
}

func (m *MockUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	args := m.Called(ctx, input)
	if m.bodies == nil {
		m.bodies = make(map[string]string)
	}
	body, _ := io.ReadAll(input.Body)
	m.bodies[aws.ToString(input.Key)] = string(body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*manager.UploadOutput), args.Error(1)
}

func TestPublisher_Publish(t *testing.T) {
	uploader := &MockUploader{}
	uploader.On("Upload", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "reports"
	})).Return(&manager.UploadOutput{}, nil)

	p := NewPublisher(uploader, "reports", "/factorlens/runs/", zerolog.Nop())
	pub, err := p.Publish(context.Background(), sampleAnalysis("run-a", time.Unix(1700000000, 0)))
	require.NoError(t, err)

	assert.Equal(t, "reports", pub.Bucket)
	assert.Equal(t, "factorlens/runs/run-a", pub.Prefix)
	assert.Equal(t, []string{
		"factorlens/runs/run-a/analysis.json",
		"factorlens/runs/run-a/correlation_6m.csv",
		"factorlens/runs/run-a/factor_summary.csv",
		"factorlens/runs/run-a/sector_factor_groups.csv",
	}, pub.Keys)

	uploader.AssertNumberOfCalls(t, "Upload", 4)
	assert.Contains(t, uploader.bodies["factorlens/runs/run-a/analysis.json"], `"id": "run-a"`)
	assert.Contains(t, uploader.bodies["factorlens/runs/run-a/analysis.json"], `"sharpe": null`)
	assert.Equal(t, ",VOO,XOM\nVOO,1,0.4\nXOM,0.4,NaN", uploader.bodies["factorlens/runs/run-a/correlation_6m.csv"])
}

func TestPublisher_UploadFailureStops(t *testing.T) {
	uploader := &MockUploader{}
	uploader.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	p := NewPublisher(uploader, "reports", "runs", zerolog.Nop())
	_, err := p.Publish(context.Background(), sampleAnalysis("run-a", time.Unix(1700000000, 0)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "runs/run-a/analysis.json")
	uploader.AssertNumberOfCalls(t, "Upload", 1)
}

func TestPublisher_Disabled(t *testing.T) {
	var p *Publisher
	_, err := p.Publish(context.Background(), sampleAnalysis("run-a", time.Now()))
	assert.ErrorIs(t, err, ErrPublishingDisabled)

	_, err = NewS3Publisher(context.Background(), config.S3Config{}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrPublishingDisabled)
}

func TestNewS3Publisher_StaticCredentials(t *testing.T) {
	p, err := NewS3Publisher(context.Background(), config.S3Config{
		Bucket:          "reports",
		Endpoint:        "http://127.0.0.1:9000",
		Region:          "us-east-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Prefix:          "runs",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "reports", p.bucket)
	assert.Equal(t, "runs", p.prefix)
	assert.IsType(t, &manager.Uploader{}, p.uploader)
}
