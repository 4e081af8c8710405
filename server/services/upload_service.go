package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	apperrors "exportdecl/server/errors"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// UploadService сохраняет файлы производителей в каталог загрузок
type UploadService struct {
	uploadDir  string
	extensions map[string]bool
	maxBytes   int64
	logger     *zap.Logger
}

// UploadResult сохраненные и отклоненные файлы
type UploadResult struct {
	FilePaths []string `json:"file_paths"`
	Rejected  []string `json:"rejected,omitempty"`
}

// NewUploadService создает сервис загрузки. extensions без точки: xlsx, csv.
func NewUploadService(uploadDir string, extensions []string, maxBytes int64, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))] = true
	}
	return &UploadService{uploadDir: uploadDir, extensions: allowed, maxBytes: maxBytes, logger: logger}
}

// AllowedFile true для файлов с разрешенным расширением
func (s *UploadService) AllowedFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return ext != "" && s.extensions[ext]
}

// SecureFilename оставляет только базовое имя из букв, цифр, точки, дефиса и подчеркивания
func SecureFilename(name string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

// Save сохраняет файлы. Файлы с неразрешенным расширением или пустым именем пропускаются.
func (s *UploadService) Save(files []*multipart.FileHeader) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("В запросе нет файлов", nil)
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, apperrors.NewInternalError("failed to create upload dir", err)
	}

	res := &UploadResult{FilePaths: []string{}}
	for _, fh := range files {
		name := SecureFilename(fh.Filename)
		if name == "" || !s.AllowedFile(name) {
			res.Rejected = append(res.Rejected, fh.Filename)
			continue
		}
		if s.maxBytes > 0 && fh.Size > s.maxBytes {
			return nil, apperrors.NewPayloadTooLargeError(
				fmt.Sprintf("Файл %s больше допустимого размера", name), nil)
		}

		path := filepath.Join(s.uploadDir, name)
		if err := saveMultipartFile(fh, path); err != nil {
			return nil, apperrors.NewInternalError("failed to save uploaded file", err)
		}
		res.FilePaths = append(res.FilePaths, path)
	}

	s.logger.Info("Files uploaded",
		zap.Int("saved", len(res.FilePaths)),
		zap.Strings("rejected", res.Rejected))
	return res, nil
}

func saveMultipartFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return out.Close()
}
