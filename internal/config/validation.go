package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	perrors "github.com/conneroisu/assetpipeline/internal/errors"
)

var dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}

// Validate checks the configuration for correctness and unsafe paths.
func (c *PipelineConfig) Validate() error {
	if err := validatePath(c.Path); err != nil {
		return configError(KeyPath, err)
	}

	for key, dir := range map[string]string{
		KeyJavascripts: c.Javascripts,
		KeyStylesheets: c.Stylesheets,
		KeyHtmls:       c.Htmls,
	} {
		if err := validatePath(dir); err != nil {
			return configError(key, err)
		}
	}

	for _, pattern := range c.Ignores {
		if _, err := regexp.Compile(pattern); err != nil {
			return configError(KeyIgnores, fmt.Errorf("pattern %q does not compile: %w", pattern, err))
		}
	}

	for _, marker := range c.Compressed {
		if strings.TrimSpace(marker) == "" {
			return configError(KeyCompressed, fmt.Errorf("blank marker"))
		}
	}

	for _, vendor := range c.Vendors {
		if strings.ContainsAny(vendor, `/\`) {
			return configError(KeyVendors, fmt.Errorf("vendor %q must be a single directory name", vendor))
		}
	}

	if c.CacheSize < 0 {
		return configError(KeyCacheSize, fmt.Errorf("must not be negative, got %d", c.CacheSize))
	}

	return nil
}

// validatePath validates a relative directory setting.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path should be relative: %s", path)
	}

	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

func configError(key string, err error) error {
	return perrors.NewConfigError(perrors.ErrCodeConfigInvalid, fmt.Sprintf("%s: %v", key, err)).
		WithContext("key", key)
}
