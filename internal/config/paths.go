package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DiscoverConfigFile returns the first existing candidate config file, or "".
func DiscoverConfigFile() string {
	for _, candidate := range ConfigFileCandidates {
		if FileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// FileExists reports whether path names a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ReplaceExt swaps the extension of path for ext.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// OutputPaths lists every file a run writes, in write order.
func (c *Config) OutputPaths() []string {
	paths := []string{c.OutputFile, c.CSVPath()}
	if c.QualityReport != "" {
		paths = append(paths, c.QualityReport)
	}
	return paths
}
