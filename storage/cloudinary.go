package storage

import (
	"context"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	now    func() time.Time
}

// NewCloudinaryUploader configures uploads from a cloudinary:// URL. All
// objects go below the root folder.
func NewCloudinaryUploader(url, root string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary configuration")
	}
	return &CloudinaryUploader{cld: cld, folder: strings.Trim(root, "/"), now: time.Now}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, f File, folder string) (string, error) {
	params := u.params(f, folder)
	res, err := u.cld.Upload.Upload(ctx, f.Reader, params)
	if err != nil {
		return "", errors.Wrap(err, "cloudinary upload")
	}
	if res.Error.Message != "" {
		return "", errors.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	logrus.WithFields(logrus.Fields{"publicId": res.PublicID, "bytes": res.Bytes}).Info("uploaded to cloudinary")
	return res.SecureURL, nil
}

func (u *CloudinaryUploader) params(f File, folder string) uploader.UploadParams {
	name := objectName(folder, f.Name, u.now())
	dir, file := name[:strings.LastIndex(name, "/")], name[strings.LastIndex(name, "/")+1:]
	if u.folder != "" {
		dir = u.folder + "/" + dir
	}
	// Cloudinary appends the extension itself.
	if i := strings.LastIndex(file, "."); i > 0 {
		file = file[:i]
	}

	params := uploader.UploadParams{
		Folder:       dir,
		PublicID:     file,
		ResourceType: "auto",
	}
	if folder == ProfilePicsFolder {
		params.Transformation = "c_limit,w_800,h_800,q_auto"
	}
	return params
}
