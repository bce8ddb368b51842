package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL prefixes object names in returned URLs. Defaults to the
	// endpoint.
	PublicURL string
}

type MinioUploader struct {
	client    *minio.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewMinioUploader connects and makes sure the bucket exists and is
// publicly readable.
func NewMinioUploader(ctx context.Context, opts MinioOptions) (*MinioUploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %s", opts.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "create bucket %s", opts.Bucket)
		}
		if err := client.SetBucketPolicy(ctx, opts.Bucket, publicReadPolicy(opts.Bucket)); err != nil {
			return nil, errors.Wrapf(err, "set policy on %s", opts.Bucket)
		}
		logrus.WithField("bucket", opts.Bucket).Info("created minio bucket")
	}

	publicURL := opts.PublicURL
	if publicURL == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}

	return &MinioUploader{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, f File, folder string) (string, error) {
	name := objectName(folder, f.Name, u.now())
	size := f.Size
	if size <= 0 {
		size = -1 // unknown, streamed in parts
	}
	info, err := u.client.PutObject(ctx, u.bucket, name, f.Reader, size, minio.PutObjectOptions{ContentType: f.ContentType})
	if err != nil {
		return "", errors.Wrapf(err, "put object %s", name)
	}

	logrus.WithFields(logrus.Fields{"object": name, "bytes": info.Size}).Info("uploaded to minio")
	return objectURL(u.publicURL, name), nil
}

// objectURL joins base and an object name, escaping each name segment.
func objectURL(base, name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segs, "/")
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}
