package resource

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Object.
// *s3.Client satisfies it.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Object returns a loader that fetches an object's contents from S3.
// The fetch context is passed through, so a superseding refetch cancels
// the request in flight.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	client := s3.NewFromConfig(cfg)
//	manifest := resource.New(resource.S3Object(client, "my-bucket", "manifest.json"))
func S3Object(client S3API, bucket, key string) Loader[[]byte] {
	return func(ctx context.Context) ([]byte, error) {
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("s3 get %s/%s: %w", bucket, key, err)
		}
		defer out.Body.Close()

		data, err := io.ReadAll(out.Body)
		if err != nil {
			return nil, fmt.Errorf("s3 read %s/%s: %w", bucket, key, err)
		}
		return data, nil
	}
}

// S3KeyObject is S3Object with the object key derived from the resource's
// reactive key, for use with NewKeyed.
func S3KeyObject(client S3API, bucket string) KeyedLoader[string, []byte] {
	return func(ctx context.Context, key string) ([]byte, error) {
		return S3Object(client, bucket, key)(ctx)
	}
}
