package stores

import (
	"context"
	"os"

	"stable-thought/core"
	"stable-thought/stores/aws"
	"stable-thought/stores/filesystem"
	"stable-thought/stores/memory"
	"stable-thought/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetStore selects the key/value backend from the STORAGE_TYPE environment
// variable. Anything unrecognised falls back to the in-memory store.
func GetStore(ctx context.Context) core.KVStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.KVStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data"
		}
		storageField["basePath"] = basePath
		fsStore, err := filesystem.NewStore(basePath)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to open filesystem storage")
		}
		store = fsStore
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "stable-thought.db"
		}
		storageField["dataSourceName"] = dataSourceName
		sqliteStore, err := sqlite.NewStore(dataSourceName)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to open sqlite storage")
		}
		store = sqliteStore
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		prefix := os.Getenv("S3_KEY_PREFIX")
		storageField["bucketName"] = bucketName
		storageField["prefix"] = prefix
		s3Store, err := aws.NewStore(ctx, bucketName, prefix)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to configure s3 storage")
		}
		store = s3Store
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
