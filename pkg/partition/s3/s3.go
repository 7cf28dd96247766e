// Package s3 provides a partition backend stored in an S3 (or
// S3-compatible) bucket.
//
// The byte range is split into fixed 4 KiB chunk objects, mirroring the
// Badger backend's model: a missing object reads back erased, a
// whole-chunk erase is a delete. Sub-chunk writes are read-modify-write,
// which is acceptable for the program sizes the filesystem issues.
//
// Object layout under the configured prefix:
//
//	<prefix>meta/size      partition size in decimal
//	<prefix>chunks/<index> chunk payload (index is zero-padded decimal)
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/flintfs/flintfs/pkg/partition"
)

const chunkSize = 4096

// S3Partition is a partition persisted as chunk objects in a bucket.
type S3Partition struct {
	client  *awss3.Client
	bucket  string
	prefix  string
	size    uint32
	subType partition.SubType
}

var _ partition.Partition = (*S3Partition)(nil)

// Config configures an S3Partition.
type Config struct {
	// Client is a configured S3 client
	Client *awss3.Client

	// Bucket is the bucket holding the partition objects
	Bucket string

	// KeyPrefix namespaces all partition objects (may be empty)
	KeyPrefix string

	// Size is the partition capacity in bytes
	Size uint32

	// SubType is the declared partition content type
	SubType partition.SubType
}

// New opens an S3-backed partition, persisting the declared size on
// first use and verifying it on reopen.
func New(ctx context.Context, cfg Config) (*S3Partition, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3 partition: client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 partition: bucket is required")
	}
	if cfg.Size == 0 {
		return nil, fmt.Errorf("s3 partition: size is required")
	}

	p := &S3Partition{
		client:  cfg.Client,
		bucket:  cfg.Bucket,
		prefix:  cfg.KeyPrefix,
		size:    cfg.Size,
		subType: cfg.SubType,
	}
	if err := p.checkSize(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *S3Partition) checkSize(ctx context.Context) error {
	key := p.prefix + "meta/size"
	out, err := p.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("s3 partition: read size object: %w", err)
		}
		body := strconv.FormatUint(uint64(p.size), 10)
		_, err := p.client.PutObject(ctx, &awss3.PutObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader([]byte(body)),
		})
		if err != nil {
			return fmt.Errorf("s3 partition: write size object: %w", err)
		}
		return nil
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("s3 partition: read size object: %w", err)
	}
	stored, err := strconv.ParseUint(string(bytes.TrimSpace(data)), 10, 32)
	if err != nil {
		return fmt.Errorf("s3 partition: parse size object: %w", err)
	}
	if uint32(stored) != p.size {
		return fmt.Errorf("s3 partition: stored size %d does not match requested %d", stored, p.size)
	}
	return nil
}

func (p *S3Partition) Size() uint32 {
	return p.size
}

func (p *S3Partition) SubType() partition.SubType {
	return p.subType
}

func (p *S3Partition) chunkKey(index uint32) string {
	return fmt.Sprintf("%schunks/%08d", p.prefix, index)
}

// loadChunk fetches one chunk into dst (len chunkSize); a missing
// object reads back erased.
func (p *S3Partition) loadChunk(ctx context.Context, index uint32, dst []byte) error {
	for i := range dst {
		dst[i] = partition.ErasedByte
	}
	out, err := p.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.chunkKey(index)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("s3 partition: get chunk %d: %w", index, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("s3 partition: get chunk %d: %w", index, err)
	}
	copy(dst, data)
	return nil
}

func (p *S3Partition) storeChunk(ctx context.Context, index uint32, chunk []byte) error {
	_, err := p.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.chunkKey(index)),
		Body:   bytes.NewReader(chunk),
	})
	if err != nil {
		return fmt.Errorf("s3 partition: put chunk %d: %w", index, err)
	}
	return nil
}

func (p *S3Partition) Read(addr uint32, buf []byte) error {
	if err := p.checkRange(addr, uint32(len(buf))); err != nil {
		return err
	}
	ctx := context.Background()
	chunk := make([]byte, chunkSize)
	for done := uint32(0); done < uint32(len(buf)); {
		index := (addr + done) / chunkSize
		off := (addr + done) % chunkSize
		n := chunkSize - off
		if rest := uint32(len(buf)) - done; rest < n {
			n = rest
		}
		if err := p.loadChunk(ctx, index, chunk); err != nil {
			return err
		}
		copy(buf[done:done+n], chunk[off:])
		done += n
	}
	return nil
}

func (p *S3Partition) Write(addr uint32, buf []byte) error {
	if err := p.checkRange(addr, uint32(len(buf))); err != nil {
		return err
	}
	ctx := context.Background()
	chunk := make([]byte, chunkSize)
	for done := uint32(0); done < uint32(len(buf)); {
		index := (addr + done) / chunkSize
		off := (addr + done) % chunkSize
		n := chunkSize - off
		if rest := uint32(len(buf)) - done; rest < n {
			n = rest
		}
		if off == 0 && n == chunkSize {
			copy(chunk, buf[done:done+n])
		} else {
			if err := p.loadChunk(ctx, index, chunk); err != nil {
				return err
			}
			copy(chunk[off:], buf[done:done+n])
		}
		if err := p.storeChunk(ctx, index, chunk); err != nil {
			return err
		}
		done += n
	}
	return nil
}

func (p *S3Partition) EraseRange(addr uint32, size uint32) error {
	if err := p.checkRange(addr, size); err != nil {
		return err
	}
	ctx := context.Background()
	chunk := make([]byte, chunkSize)
	for done := uint32(0); done < size; {
		index := (addr + done) / chunkSize
		off := (addr + done) % chunkSize
		n := chunkSize - off
		if rest := size - done; rest < n {
			n = rest
		}
		if off == 0 && n == chunkSize {
			_, err := p.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
				Bucket: aws.String(p.bucket),
				Key:    aws.String(p.chunkKey(index)),
			})
			if err != nil && !isNotFound(err) {
				return fmt.Errorf("s3 partition: delete chunk %d: %w", index, err)
			}
		} else {
			if err := p.loadChunk(ctx, index, chunk); err != nil {
				return err
			}
			for i := off; i < off+n; i++ {
				chunk[i] = partition.ErasedByte
			}
			if err := p.storeChunk(ctx, index, chunk); err != nil {
				return err
			}
		}
		done += n
	}
	return nil
}

// Sync is a no-op: every Write is durable once PutObject returns.
func (p *S3Partition) Sync() error {
	return nil
}

func (p *S3Partition) checkRange(addr, size uint32) error {
	if uint64(addr)+uint64(size) > uint64(p.size) {
		return fmt.Errorf("s3 partition: range [%d, %d) outside size %d", addr, addr+size, p.size)
	}
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
