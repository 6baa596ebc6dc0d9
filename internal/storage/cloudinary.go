// Package storage holds the Cloudinary-backed blob store used for chat
// attachments.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const uploadFolder = "chat_uploads"

type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("creating cloudinary client: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

// Upload stores the blob and returns its HTTPS URL and size. resource_type
// auto lets Cloudinary classify images, audio and raw documents itself.
func (c *Cloudinary) Upload(ctx context.Context, data []byte, fileName string) (string, int64, error) {
	resp, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:         uploadFolder,
		ResourceType:   "auto",
		UseFilename:    api.Bool(true),
		UniqueFilename: api.Bool(true),
	})
	if err != nil {
		return "", 0, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.SecureURL == "" {
		return "", 0, fmt.Errorf("cloudinary upload returned no secure url")
	}
	return resp.SecureURL, int64(resp.Bytes), nil
}
