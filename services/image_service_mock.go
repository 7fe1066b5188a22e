package services

import (
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/asante-farms/chickorder-api/utils"
)

// MockImageService is an in-memory ImageService for tests
type MockImageService struct {
	images map[string]bool
	mu     sync.RWMutex

	// UploadErr, when set, is returned by UploadImage after validation
	UploadErr error
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{
		images: make(map[string]bool),
	}
}

// SetAsMockForTesting sets this mock as the global image service instance
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

// UploadImage validates the photo and records a fake storage key
func (m *MockImageService) UploadImage(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	if m.UploadErr != nil {
		return "", m.UploadErr
	}

	key := fmt.Sprintf("products/mock_%s", fileHeader.Filename)
	m.mu.Lock()
	m.images[key] = true
	m.mu.Unlock()
	return key, nil
}

// GetImageURL returns a deterministic fake URL for a stored key
func (m *MockImageService) GetImageURL(imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", imageKey), nil
}

// DeleteImage removes a key from the mock store
func (m *MockImageService) DeleteImage(imageKey string) error {
	m.mu.Lock()
	delete(m.images, imageKey)
	m.mu.Unlock()
	return nil
}

// ImageExists checks whether a key is in the mock store
func (m *MockImageService) ImageExists(imageKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.images[imageKey]
}
