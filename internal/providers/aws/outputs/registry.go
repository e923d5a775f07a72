// Package outputs stores stage outputs as JSON objects in an S3 bucket.
package outputs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/juju/errors"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/stackref"
)

// StackRegistry implements stackref.Registry and stackref.Publisher on S3.
// Stage "<org>/<project>/<stack>" lives at "<prefix>/<org>/<project>/<stack>.json".
type StackRegistry struct {
	client common.S3Client
	bucket string
	prefix string
}

// NewStackRegistry returns a registry storing objects in bucket under prefix.
func NewStackRegistry(client common.S3Client, bucket, prefix string) *StackRegistry {
	return &StackRegistry{client: client, bucket: bucket, prefix: prefix}
}

func (r *StackRegistry) key(stage string) string {
	return path.Join(r.prefix, stage+".json")
}

func (r *StackRegistry) Outputs(ctx context.Context, stage string) (stackref.Outputs, error) {
	if err := stackref.ValidateStageName(stage); err != nil {
		return nil, err
	}
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(stage)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, errors.NotFoundf("outputs of stage %q in s3://%s/%s", stage, r.bucket, r.key(stage))
		}
		return nil, errors.Annotatef(err, "getting outputs of stage %q", stage)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Annotatef(err, "reading outputs of stage %q", stage)
	}
	var outputs stackref.Outputs
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, errors.Annotatef(err, "parsing outputs of stage %q", stage)
	}
	return outputs, nil
}

func (r *StackRegistry) Publish(ctx context.Context, stage string, outputs stackref.Outputs) error {
	if err := stackref.ValidateStageName(stage); err != nil {
		return err
	}
	data, err := json.Marshal(outputs)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(stage)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return errors.Annotatef(err, "putting outputs of stage %q", stage)
}
