package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"bot-supervisor/core/models"
)

// ArtifactManager moves training inputs and outputs between remote storage
// and the run's local working directory
type ArtifactManager struct {
	store   BlobStore
	workDir string
}

// NewArtifactManager creates a new artifact manager
func NewArtifactManager(store BlobStore, workDir string) *ArtifactManager {
	return &ArtifactManager{
		store:   store,
		workDir: workDir,
	}
}

// FetchTrainingConfig downloads the job's training configuration and keeps a
// local copy in the working directory. It returns the local path and content.
func (am *ArtifactManager) FetchTrainingConfig(ctx context.Context, job models.TrainingJob) (string, []byte, error) {
	body, err := am.store.Get(ctx, job.Bucket, job.ConfigObjectKey())
	if err != nil {
		return "", nil, err
	}

	localPath, err := am.writeLocal(job.ConfigKey, body)
	if err != nil {
		return "", nil, err
	}
	return localPath, body, nil
}

// PublishModel keeps a local copy of the trained model and uploads it to the
// job's destination key
func (am *ArtifactManager) PublishModel(ctx context.Context, job models.TrainingJob, artifact []byte) (models.RemoteArtifact, error) {
	if _, err := am.writeLocal(job.ModelKey, artifact); err != nil {
		return models.RemoteArtifact{}, err
	}

	remote := models.RemoteArtifact{Bucket: job.Bucket, Key: job.ModelObjectKey()}
	if err := am.store.Put(ctx, remote.Bucket, remote.Key, artifact); err != nil {
		return models.RemoteArtifact{}, err
	}
	return remote, nil
}

func (am *ArtifactManager) writeLocal(key string, body []byte) (string, error) {
	if err := os.MkdirAll(am.workDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create working directory: %w", err)
	}

	localPath := filepath.Join(am.workDir, filepath.Base(key))
	if err := os.WriteFile(localPath, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return localPath, nil
}
