package storage

import (
	"fmt"
	"strings"
)

// MaxObjectSize caps a single archived document (2 MB).
const MaxObjectSize int64 = 2 * 1024 * 1024

// AllowedContentTypes defines the document types the archive accepts.
var AllowedContentTypes = map[string]bool{
	"application/json":   true,
	"application/yaml":   true,
	"application/x-yaml": true,
	"text/yaml":          true,
	"text/plain":         true,
}

// ValidateObject checks an object before it is written.
func ValidateObject(key, contentType string, size int64) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ValidateContentType(contentType); err != nil {
		return err
	}
	return ValidateSize(size)
}

// ValidateKey rejects empty keys and path traversal.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("object key is required")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}

// ValidateContentType checks if the content type is allowed.
func ValidateContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(normalized, ";"); idx != -1 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateSize checks the object is non-empty and within the limit.
func ValidateSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("object is empty")
	}
	if size > MaxObjectSize {
		return fmt.Errorf("object size %d exceeds maximum of %d bytes", size, MaxObjectSize)
	}
	return nil
}
