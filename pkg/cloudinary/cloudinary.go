package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Uploader stores user-supplied images and returns their public URL.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url string, err error)
}

// Proofs are screenshots; keep them readable but not full size.
const proofEager = "q_auto,f_auto,w_1200,c_limit"

var eagerAsyncFalse = false

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "image",
		Eager:        proofEager,
		EagerAsync:   &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	if len(result.Eager) > 0 && result.Eager[0].SecureURL != "" {
		return result.Eager[0].SecureURL, nil
	}
	return result.SecureURL, nil
}

// NewClientFromParams builds an Uploader from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Uploader, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{cloudName: cloudName, uploader: up}, nil
}
