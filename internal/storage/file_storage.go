package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttachmentStore persists report attachment binaries keyed by report id and
// approval stage. Files are write-once: deactivating an attachment keeps the
// file on disk for audit continuity.
type AttachmentStore interface {
	// Save writes content and returns the stored path relative to the base dir.
	Save(reportID uuid.UUID, stage, fileName string, content []byte) (string, error)

	// Read returns the content at a previously returned stored path.
	Read(storedPath string) ([]byte, error)
}

// LocalAttachmentStore implements AttachmentStore on the local filesystem.
type LocalAttachmentStore struct {
	baseDir string
	logger  *zap.Logger
}

func NewLocalAttachmentStore(baseDir string, logger *zap.Logger) (*LocalAttachmentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("invalid base dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base dir: %w", err)
	}
	return &LocalAttachmentStore{baseDir: abs, logger: logger}, nil
}

func (s *LocalAttachmentStore) Save(reportID uuid.UUID, stage, fileName string, content []byte) (string, error) {
	safeName := sanitizeFileName(fileName)
	if safeName == "" {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}

	// Prefix with a fresh uuid so two uploads of the same name never collide.
	rel := filepath.Join(reportID.String(), strings.ToLower(stage), uuid.NewString()+"_"+safeName)
	fullPath := filepath.Join(s.baseDir, rel)

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("attachment stored",
		zap.String("report_id", reportID.String()),
		zap.String("path", rel),
		zap.Int("size", len(content)))

	return rel, nil
}

func (s *LocalAttachmentStore) Read(storedPath string) ([]byte, error) {
	fullPath := filepath.Join(s.baseDir, storedPath)
	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return content, nil
}

// validatePath rejects traversal outside the base directory.
func (s *LocalAttachmentStore) validatePath(fullPath string) error {
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if !strings.HasPrefix(abs, s.baseDir+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes storage base directory", fullPath)
	}
	return nil
}

// sanitizeFileName strips directory components and control characters.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		if r < 32 || r == '/' || r == '\\' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
