package cloudinary

import (
	"bytes"
	"context"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// PhotoUploader stores trainer photos. Re-uploading the same public id
// replaces the previous image.
type PhotoUploader struct {
	cld *cld.Cloudinary
}

func NewPhotoUploader(cloud *cld.Cloudinary) *PhotoUploader {
	return &PhotoUploader{cld: cloud}
}

func (u *PhotoUploader) UploadBytes(ctx context.Context, folder string, publicID string, b []byte) (string, error) {
	res, err := u.cld.Upload.Upload(ctx, bytes.NewReader(b), uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		return "", err
	}
	return res.SecureURL, nil
}
