package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rossosss/zvonok/models"
	"github.com/rossosss/zvonok/pkg"
)

// UploadURLPrefix is where stored files are served.
const UploadURLPrefix = "/uploads/"

// UploadService stores attachment and server image files on local disk.
//
// Stored names are "{unix ms}-{sanitized name}{ext}" where ext comes from
// the accepted MIME type, never from the client's file name. Files are
// created exclusively and never overwritten.
type UploadService interface {
	// Save writes the file and returns its public URL under
	// UploadURLPrefix. Types outside the allow-list and files larger than
	// the configured maximum are pkg.ErrBadRequest; the size is enforced
	// on the bytes actually written.
	Save(file io.Reader, header *multipart.FileHeader) (*models.UploadResult, error)
}

type uploadService struct {
	uploadDir string
	maxSize   int64
	now       func() time.Time
}

func NewUploadService(uploadDir string, maxSize int64) UploadService {
	return &uploadService{
		uploadDir: uploadDir,
		maxSize:   maxSize,
		now:       time.Now,
	}
}

// allowedMimeTypes maps each accepted type to the extension stored files
// get. The file server derives Content-Type from the extension, so a stored
// file is always served as the type that was checked here.
var allowedMimeTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"audio/mpeg":      ".mp3",
	"audio/ogg":       ".ogg",
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
}

func (s *uploadService) Save(file io.Reader, header *multipart.FileHeader) (*models.UploadResult, error) {
	if header.Size > s.maxSize {
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize>>20)
	}

	mimeBase, _, _ := strings.Cut(header.Header.Get("Content-Type"), ";")
	mimeBase = strings.ToLower(strings.TrimSpace(mimeBase))
	ext, ok := allowedMimeTypes[mimeBase]
	if !ok {
		return nil, fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, mimeBase)
	}

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + storedName(header.Filename, ext)
	destPath := filepath.Join(s.uploadDir, name)

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	// The declared size can lie; never write more than maxSize.
	written, copyErr := io.Copy(dest, io.LimitReader(file, s.maxSize+1))
	closeErr := dest.Close()

	switch {
	case copyErr != nil || closeErr != nil:
		os.Remove(destPath)
		return nil, fmt.Errorf("failed to save file: %w", errors.Join(copyErr, closeErr))
	case written > s.maxSize:
		os.Remove(destPath)
		return nil, fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize>>20)
	}

	log.Printf("[upload] stored %s (%d bytes, %s)", name, written, mimeBase)
	return &models.UploadResult{URL: UploadURLPrefix + name}, nil
}

// storedName swaps the client's extension for ext.
func storedName(filename, ext string) string {
	name := sanitizeFilename(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		name = "file"
	}
	return name + ext
}

// sanitizeFilename keeps the base name, replaces whitespace with "-" and
// drops anything outside letters, digits, '.', '-' and '_'.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		case r == ' ' || r == '\t':
			return '-'
		}
		return -1
	}, name)

	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "file"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}
