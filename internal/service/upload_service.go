package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrFileEmpty    = errors.New("no file provided")
	ErrFileType     = errors.New("file type not allowed")
	ErrFileTooLarge = errors.New("file exceeds the size limit")
)

// MaxUploadBytes caps attachment size at 10 MiB.
const MaxUploadBytes = 10 << 20

// BlobStore uploads a binary blob to durable storage and returns a
// retrievable URL plus the stored size.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, fileName string) (url string, size int64, err error)
}

var allowedFileTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"audio/mpeg":      {},
	"audio/ogg":       {},
	"audio/wav":       {},
	"application/pdf": {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

var unsafeFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

type UploadService struct {
	store BlobStore
}

func NewUploadService(store BlobStore) *UploadService {
	return &UploadService{store: store}
}

type UploadInfo struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

func (s *UploadService) Upload(ctx context.Context, data []byte, fileName, contentType string) (*UploadInfo, error) {
	if len(data) == 0 {
		return nil, ErrFileEmpty
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if _, ok := allowedFileTypes[strings.ToLower(contentType)]; !ok {
		return nil, ErrFileType
	}

	fileName = SanitizeFileName(fileName)

	url, size, err := s.store.Upload(ctx, data, fileName)
	if err != nil {
		return nil, fmt.Errorf("uploading file: %w", err)
	}

	return &UploadInfo{
		FileName: fileName,
		FileURL:  url,
		FileType: contentType,
		FileSize: size,
	}, nil
}

// SanitizeFileName replaces anything outside [a-zA-Z0-9.-_] with an
// underscore and falls back to "upload" for a missing name.
func SanitizeFileName(name string) string {
	if name == "" {
		return "upload"
	}
	return unsafeFileNameChars.ReplaceAllString(name, "_")
}
