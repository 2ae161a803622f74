package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MEDIABOX_CONFIG", "")
	t.Chdir(t.TempDir())

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, c.Breakdown.Debounce)
	assert.Equal(t, "aws", c.Storage.Backend)
	assert.Equal(t, 5432, c.Database.Port)
	assert.Equal(t, "require", c.Database.SSLMode)
	assert.Nil(t, c.Breakdown.Translator())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mediabox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aws:
  region: us-east-1
  s3_bucket: plans
database:
  endpoint: db.internal
  port: 6543
  instance_id: mediabox-prod
storage:
  backend: memory
breakdown:
  debounce: 250ms
  months_short: "jan,feb,mar,apr,may,jun,jul,aug,sep,oct,nov,dec"
`), 0o600))
	t.Setenv("MEDIABOX_AWS_REGION", "eu-west-3")
	t.Setenv("MEDIABOX_LOG_DEBUG", "true")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "eu-west-3", c.AWS.Region, "env wins over file")
	assert.Equal(t, "plans", c.AWS.S3Bucket)
	assert.Equal(t, "memory", c.Storage.Backend)
	assert.Equal(t, 250*time.Millisecond, c.Breakdown.Debounce)
	assert.True(t, c.Log.Debug)

	aws := c.AWSClientConfig()
	assert.Equal(t, "db.internal", aws.DBEndpoint)
	assert.Equal(t, 6543, aws.DBPort)
	assert.Equal(t, "mediabox-prod", aws.DBInstanceID)
	assert.Equal(t, "plans", aws.S3BucketName)

	l := domain.NewLabeler(c.Breakdown.Translator())
	assert.Equal(t, "may 24", l.BoundaryLabel(domain.MonthlyBreakdown, "2024-05-10"))
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("MEDIABOX_STORAGE_BACKEND", "ftp")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  debug: false\n"), 0o600))
	_, err = Load(path)
	assert.ErrorContains(t, err, "storage.backend")
}
