package chat

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/tfmusic/workflow-assistant/internal/brief"
)

// SupportedExtensions lists the file types accepted for upload.
var SupportedExtensions = []string{".txt", ".csv", ".pdf", ".docx", ".xlsx"}

// LoadFile reads a brief from disk. CSV files become a table; every other
// supported type is passed on as a document.
func LoadFile(path string) (brief.RawInput, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !isSupported(ext) {
		return nil, fmt.Errorf("unsupported file type %q (supported: %s)", ext, strings.Join(SupportedExtensions, ", "))
	}

	name := filepath.Base(path)
	if ext == ".csv" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		table, err := brief.ParseCSV(f, name)
		if err != nil {
			return nil, err
		}
		return table, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return brief.Document{
		Filename:    name,
		ContentType: mime.TypeByExtension(ext),
		Content:     content,
	}, nil
}

func isSupported(ext string) bool {
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}
