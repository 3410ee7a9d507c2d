package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNoS3Client is returned for s3:// paths when the Loader has no client.
var ErrNoS3Client = errors.New("s3 source requested but no s3 client configured")

// ObjectGetter is the subset of *s3.Client used to fetch a source object.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader reads a source table from the local filesystem or S3. Paths
// ending in .xlsx are read as workbooks, anything else as CSV.
type Loader struct {
	// S3 fetches s3://bucket/key paths. May be nil when only local files are used.
	S3 ObjectGetter
}

// Load reads and parses the whole source at path.
func (l Loader) Load(ctx context.Context, path string) (*Table, error) {
	data, err := l.read(ctx, path)
	if err != nil {
		return nil, err
	}

	parse := Parse
	if IsSpreadsheet(path) {
		parse = ParseXLSX
	}
	table, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	table.Path = path
	return table, nil
}

func (l Loader) read(ctx context.Context, path string) ([]byte, error) {
	if !IsS3Path(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}

	if l.S3 == nil {
		return nil, ErrNoS3Client
	}

	bucket, key, err := ParseS3URL(path)
	if err != nil {
		return nil, err
	}

	out, err := l.S3.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s: %w", path, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 object %s: %w", path, err)
	}
	return data, nil
}

// IsS3Path reports whether path is an s3:// URL.
func IsS3Path(path string) bool {
	return strings.HasPrefix(strings.ToLower(path), "s3://")
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 url %q: %w", path, err)
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("invalid s3 url %q: scheme must be s3", path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 url %q: bucket and key required", path)
	}
	return bucket, key, nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	Region    string
	Endpoint  string // optional; e.g. a MinIO URL
	PathStyle bool
}

// NewS3Client builds an S3 client from the default credential chain.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.PathStyle {
			o.UsePathStyle = true
		}
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}
