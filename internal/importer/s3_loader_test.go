package importer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockObjectGetter is a mock implementation of ObjectGetter.
type MockObjectGetter struct {
	mock.Mock
}

func (m *MockObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

// mockLoader is a mock implementation of Loader for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, path string) (*Batch, error)
}

func (m *mockLoader) Load(ctx context.Context, path string) (*Batch, error) {
	return m.loadFunc(ctx, path)
}

func TestS3Loader_Load(t *testing.T) {
	client := new(MockObjectGetter)
	body := gzipLines(t, []string{
		`{"title":"From S3","kind":"fixed_amount","discountValue":"25"}`,
	})

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Bucket == "offers-bucket" && *in.Key == "imports/offers.jsonl.gz"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil)

	loader := NewS3LoaderWithClient(client, "offers-bucket", zerolog.Nop())

	batch, err := loader.Load(context.Background(), "imports/offers.jsonl.gz")

	require.NoError(t, err)
	assert.Equal(t, "s3://offers-bucket/imports/offers.jsonl.gz", batch.Source)
	require.Len(t, batch.Requests, 1)
	assert.Equal(t, "From S3", batch.Requests[0].Title)
	client.AssertExpectations(t)
}

func TestS3Loader_GetObjectError(t *testing.T) {
	client := new(MockObjectGetter)
	client.On("GetObject", mock.Anything, mock.Anything).Return(nil, errors.New("NoSuchKey"))

	loader := NewS3LoaderWithClient(client, "offers-bucket", zerolog.Nop())

	_, err := loader.Load(context.Background(), "missing.jsonl.gz")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get object from S3")
	assert.Contains(t, err.Error(), "NoSuchKey")
}

func TestFallbackLoader_S3Success(t *testing.T) {
	expected := &Batch{Source: "s3"}

	s3Mock := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Batch, error) {
			assert.Equal(t, "imports/offers.jsonl.gz", path)
			return expected, nil
		},
	}
	local := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Batch, error) {
			t.Fatal("file loader should not be called when S3 succeeds")
			return nil, nil
		},
	}

	loader := NewFallbackLoader(s3Mock, local, "imports/", zerolog.Nop())

	batch, err := loader.Load(context.Background(), "offers.jsonl.gz")

	require.NoError(t, err)
	assert.Same(t, expected, batch)
}

func TestFallbackLoader_S3FailsFallbackToFile(t *testing.T) {
	expected := &Batch{Source: "local"}

	s3Mock := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Batch, error) {
			return nil, errors.New("access denied")
		},
	}
	local := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Batch, error) {
			assert.Equal(t, "offers.jsonl.gz", path)
			return expected, nil
		},
	}

	loader := NewFallbackLoader(s3Mock, local, "imports/", zerolog.Nop())

	batch, err := loader.Load(context.Background(), "offers.jsonl.gz")

	require.NoError(t, err)
	assert.Same(t, expected, batch)
}

func TestFallbackLoader_BothFail(t *testing.T) {
	s3Mock := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Batch, error) {
			return nil, errors.New("access denied")
		},
	}
	local := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Batch, error) {
			return nil, errors.New("file not found")
		},
	}

	loader := NewFallbackLoader(s3Mock, local, "imports/", zerolog.Nop())

	_, err := loader.Load(context.Background(), "offers.jsonl.gz")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestFallbackLoader_NoS3(t *testing.T) {
	called := false
	local := &mockLoader{
		loadFunc: func(ctx context.Context, path string) (*Batch, error) {
			called = true
			return &Batch{}, nil
		},
	}

	loader := NewFallbackLoader(nil, local, "imports/", zerolog.Nop())

	_, err := loader.Load(context.Background(), "offers.jsonl.gz")

	require.NoError(t, err)
	assert.True(t, called)
}
