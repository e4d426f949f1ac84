package filesystem

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"stable-thought/core"

	"github.com/sirupsen/logrus"
)

type fsStore struct {
	basePath string
}

// NewStore creates a filesystem-based store that keeps one file per key under basePath.
func NewStore(basePath string) (core.KVStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &fsStore{basePath: basePath}, nil
}

// keyPath maps a key to a file inside basePath. Keys are query-escaped so that
// separators such as ':' and '/' never leave the base directory.
func (s *fsStore) keyPath(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	name := url.QueryEscape(key)

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(filepath.Join(s.basePath, name+".json"))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFile, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied")
	}
	return absFile, nil
}

func (s *fsStore) Get(ctx context.Context, key string) ([]byte, error) {
	filePath, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "path": filePath})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("Key file not found")
			return nil, fmt.Errorf("get %s: %w", key, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read key file")
		return nil, err
	}

	log.Debug("Value retrieved successfully")
	return data, nil
}

// Set writes to a temporary file first and renames it over the target, so a
// crash mid-write never leaves a truncated value behind.
func (s *fsStore) Set(ctx context.Context, key string, value []byte) error {
	filePath, err := s.keyPath(key)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"key": key, "path": filePath})

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".tmp-*")
	if err != nil {
		log.WithError(err).Error("Failed to create temporary file")
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		log.WithError(err).Error("Failed to write value")
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		log.WithError(err).Error("Failed to replace key file")
		return err
	}

	log.WithField("data_length", len(value)).Debug("Value stored successfully")
	return nil
}

func (s *fsStore) Delete(ctx context.Context, key string) error {
	filePath, err := s.keyPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		logrus.WithFields(logrus.Fields{"key": key, "path": filePath}).WithError(err).Error("Failed to delete key file")
		return err
	}
	return nil
}
