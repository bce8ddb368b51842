package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/hamas2/hamak/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Folders used by the app.
const (
	VideosFolder      = "videos"
	ProfilePicsFolder = "profile-pics"
)

// File is an upload payload. Size may be -1 when unknown.
type File struct {
	Reader      io.Reader
	Name        string
	Size        int64
	ContentType string
}

// Uploader stores a file under folder and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f File, folder string) (string, error)
}

// New builds the uploader selected by cfg.Driver.
func New(ctx context.Context, cfg config.Storage) (Uploader, error) {
	logrus.WithField("driver", cfg.Driver).Info("opening blob storage")

	switch cfg.Driver {
	case "memory":
		return NewMemoryUploader("memory://"), nil
	case "cloudinary":
		return NewCloudinaryUploader(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	case "minio":
		return NewMinioUploader(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
			PublicURL: cfg.MinioPublicURL,
		})
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// objectName is {folder}/{unix millis}_{base name}. Characters outside
// [A-Za-z0-9._-] in the base name become underscores.
func objectName(folder, name string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	return fmt.Sprintf("%s/%d_%s", folder, now.UnixMilli(), base)
}
