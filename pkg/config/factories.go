package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/flintfs/flintfs/internal/logger"
	"github.com/flintfs/flintfs/pkg/partition"
	badgerpart "github.com/flintfs/flintfs/pkg/partition/badger"
	filepart "github.com/flintfs/flintfs/pkg/partition/file"
	memorypart "github.com/flintfs/flintfs/pkg/partition/memory"
	s3part "github.com/flintfs/flintfs/pkg/partition/s3"
)

// CreatePartition creates a partition backend based on configuration.
//
// The Type field selects the implementation; the matching option map
// is decoded into the backend's own configuration type and handed to
// its constructor.
//
// Supported types:
//   - "memory": volatile in-process partition
//   - "file": flash image in a regular file
//   - "badger": chunked partition in a local BadgerDB
//   - "s3": chunked partition in an S3 (or compatible) bucket
func CreatePartition(ctx context.Context, cfg *PartitionConfig) (partition.Partition, error) {
	switch cfg.Type {
	case "memory":
		return memorypart.New(cfg.Size, partition.SubTypeFlintFS), nil
	case "file":
		return createFilePartition(cfg)
	case "badger":
		return createBadgerPartition(cfg)
	case "s3":
		return createS3Partition(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown partition type: %q", cfg.Type)
	}
}

// createFilePartition opens a file-image partition, creating the image
// when it does not exist yet.
func createFilePartition(cfg *PartitionConfig) (partition.Partition, error) {
	type FilePartitionConfig struct {
		Path string `mapstructure:"path"`
	}

	var opts FilePartitionConfig
	if err := mapstructure.Decode(cfg.File, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode file partition config: %w", err)
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("file partition: path is required")
	}

	if _, err := os.Stat(opts.Path); os.IsNotExist(err) {
		logger.Info("creating %d-byte partition image at %s", cfg.Size, opts.Path)
		return filepart.Create(opts.Path, cfg.Size, partition.SubTypeFlintFS)
	}
	return filepart.Open(opts.Path, partition.SubTypeFlintFS)
}

// createBadgerPartition opens a BadgerDB-backed partition.
func createBadgerPartition(cfg *PartitionConfig) (partition.Partition, error) {
	type BadgerPartitionConfig struct {
		Path     string `mapstructure:"path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	var opts BadgerPartitionConfig
	if err := mapstructure.Decode(cfg.Badger, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode badger partition config: %w", err)
	}
	if opts.Path == "" && !opts.InMemory {
		return nil, fmt.Errorf("badger partition: path is required")
	}

	return badgerpart.New(badgerpart.Config{
		DBPath:   opts.Path,
		Size:     cfg.Size,
		SubType:  partition.SubTypeFlintFS,
		InMemory: opts.InMemory,
	})
}

// createS3Partition opens an S3-backed partition.
func createS3Partition(ctx context.Context, cfg *PartitionConfig) (partition.Partition, error) {
	type S3PartitionConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var opts S3PartitionConfig
	if err := mapstructure.Decode(cfg.S3, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode s3 partition config: %w", err)
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 partition: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("s3 partition: region is required")
	}

	client, err := buildS3Client(ctx, opts.Region, opts.Endpoint,
		opts.AccessKeyID, opts.SecretAccessKey, opts.MaxRetries)
	if err != nil {
		return nil, err
	}

	return s3part.New(ctx, s3part.Config{
		Client:    client,
		Bucket:    opts.Bucket,
		KeyPrefix: opts.KeyPrefix,
		Size:      cfg.Size,
		SubType:   partition.SubTypeFlintFS,
	})
}

// buildS3Client assembles an S3 client from the partition options,
// falling back to the default AWS credential chain when no static
// credentials are configured.
func buildS3Client(ctx context.Context, region, endpoint, accessKey, secretKey string, maxRetries int) (*awss3.Client, error) {
	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(region),
	}

	if accessKey != "" && secretKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.AddWithMaxAttempts(retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxBackoff = 30 * time.Second
		}), maxRetries)
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if endpoint != "" {
			// MinIO and Localstack need path-style addressing.
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
