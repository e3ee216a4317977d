package adapters

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"event_leads_backend/internal/adapters/storage"
	photoboothservice "event_leads_backend/internal/photobooth/service"
)

// PhotoboothVariantStore adapts object storage for generated variant
// uploads. Keys are grouped per generation so a whole run can be
// inspected or cleaned up by prefix.
type PhotoboothVariantStore struct {
	storage storage.Service
	bucket  string
}

func NewPhotoboothVariantStore(svc storage.Service, bucket string) *PhotoboothVariantStore {
	return &PhotoboothVariantStore{storage: svc, bucket: bucket}
}

func (a *PhotoboothVariantStore) UploadVariant(ctx context.Context, generationID uuid.UUID, slot int, data []byte, contentType string) (string, error) {
	fileName := fmt.Sprintf("variant_%d%s", slot, extensionFor(contentType))
	fileKey, err := a.storage.UploadFile(ctx, a.bucket, generationID.String(), fileName, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	return a.storage.PublicURL(a.bucket, fileKey), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

var _ photoboothservice.VariantStore = (*PhotoboothVariantStore)(nil)
