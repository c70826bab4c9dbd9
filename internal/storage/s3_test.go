package storage

import (
	"os"
	"testing"
)

func TestNewS3Storage(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	_ = os.Unsetenv("AWS_PROFILE")

	cfg := S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:4566", // LocalStack-like endpoint
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	store, err := NewS3Storage(cfg)
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}

	if store.bucket != cfg.Bucket {
		t.Errorf("bucket = %v, want %v", store.bucket, cfg.Bucket)
	}
	if store.region != cfg.Region {
		t.Errorf("region = %v, want %v", store.region, cfg.Region)
	}
}

func TestNewS3Storage_WithoutStaticCredentials(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_ACCESS_KEY_ID", "env-access-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret-key")

	store, err := NewS3Storage(S3Config{Bucket: "b", Region: "eu-west-1"})
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}
	if store.client == nil {
		t.Error("expected S3 client to be initialized")
	}
}
