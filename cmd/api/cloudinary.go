package main

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const proofFolder = "verification-proofs"

type uploadedFile struct {
	URL      string
	PublicID string
}

// fileStore keeps verification proof documents.
type fileStore interface {
	Upload(ctx context.Context, file io.Reader, folder, publicID string) (*uploadedFile, error)
	Destroy(ctx context.Context, publicID string) error
}

type cloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func newCloudinaryStore(url string) (*cloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &cloudinaryStore{cld: cld}, nil
}

// Upload stores file under folder/publicID and never overwrites an existing
// asset.
func (s *cloudinaryStore) Upload(ctx context.Context, file io.Reader, folder, publicID string) (*uploadedFile, error) {
	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		Overwrite:    api.Bool(false),
		ResourceType: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return &uploadedFile{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (s *cloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from Cloudinary: %w", err)
	}
	return nil
}

// discardProof removes an uploaded proof that no request references. It
// outlives the request context so a cancelled client does not leave the
// asset behind.
func (app *application) discardProof(publicID string) {
	if publicID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), proofCleanupTimeout)
	defer cancel()
	if err := app.files.Destroy(ctx, publicID); err != nil {
		app.logger.Errorw("could not remove verification proof", "public_id", publicID, "error", err)
	}
}
