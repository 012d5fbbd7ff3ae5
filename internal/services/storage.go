package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"jobportal/backend/internal/models"
)

const (
	ResumePrefix     = "resumes"
	AnswerFilePrefix = "application_files"
)

// BlobStore keeps uploaded files and hands back an opaque reference to them.
// Stores are append-only: nothing is removed when a later database write fails.
type BlobStore interface {
	Store(ctx context.Context, upload *models.Upload, prefix string) (string, error)
	Resolve(ctx context.Context, ref string) (string, error)
}

func newObjectKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(prefix, uuid.New().String()+ext)
}

type LocalStorage struct {
	uploadPath string
	urlPrefix  string
}

func NewLocalStorage(uploadPath, urlPrefix string) *LocalStorage {
	return &LocalStorage{
		uploadPath: uploadPath,
		urlPrefix:  strings.TrimRight(urlPrefix, "/"),
	}
}

func (s *LocalStorage) EnsureUploadDir() error {
	for _, dir := range []string{ResumePrefix, AnswerFilePrefix} {
		if err := os.MkdirAll(filepath.Join(s.uploadPath, dir), 0755); err != nil {
			return fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return nil
}

func (s *LocalStorage) Store(_ context.Context, upload *models.Upload, prefix string) (string, error) {
	ref := newObjectKey(prefix, upload.Filename)
	filePath := s.GetFilePath(ref)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := upload.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return ref, nil
}

func (s *LocalStorage) Resolve(_ context.Context, ref string) (string, error) {
	return s.urlPrefix + "/" + ref, nil
}

func (s *LocalStorage) GetFilePath(ref string) string {
	return filepath.Join(s.uploadPath, filepath.FromSlash(ref))
}

// Root is the directory uploads are written under.
func (s *LocalStorage) Root() string {
	return s.uploadPath
}
