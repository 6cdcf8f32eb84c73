package s3_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/TripCrew/internal/adapter/s3"
	"github.com/Strob0t/TripCrew/internal/config"
	"github.com/Strob0t/TripCrew/internal/domain"
	"github.com/Strob0t/TripCrew/internal/port/artifact"
)

var _ artifact.Store = (*s3.Store)(nil)

func TestNew_RequiresSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Artifact
	}{
		{"no endpoint", config.Artifact{AccessKey: "a", SecretKey: "b", Bucket: "c"}},
		{"no credentials", config.Artifact{Endpoint: "localhost:9000", Bucket: "c"}},
		{"no bucket", config.Artifact{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s3.New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_Valid(t *testing.T) {
	st, err := s3.New(config.Artifact{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "plans"})
	require.NoError(t, err)
	assert.NotNil(t, st)
}

func TestPut_EmptyKey(t *testing.T) {
	st, err := s3.New(config.Artifact{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "plans"})
	require.NoError(t, err)
	err = st.Put(context.Background(), "  ", "text/markdown", []byte("x"))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

// Requires a running MinIO, e.g. TRIPCREW_S3_ENDPOINT=localhost:9000.
func TestStore_RoundTrip(t *testing.T) {
	endpoint := os.Getenv("TRIPCREW_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("requires TRIPCREW_S3_ENDPOINT")
	}
	st, err := s3.New(config.Artifact{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("TRIPCREW_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("TRIPCREW_S3_SECRET_KEY"),
		Bucket:    "tripcrew-test",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := artifact.PlanKey(uuid.NewString())
	require.NoError(t, st.Put(ctx, key, "text/markdown", []byte("# Trip plan: Paris\n")))

	got, err := st.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "# Trip plan: Paris\n", string(got))

	_, err = st.Get(ctx, artifact.PlanKey(uuid.NewString()))
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	url, err := st.PresignedURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "tripcrew-test")
}
