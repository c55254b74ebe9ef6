// Package cover processes catalog artwork. Source images are normalized to
// a fixed landscape frame, encoded as JPEG and uploaded keyed by the hash
// of the original image so identical artwork is stored once.
package cover

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/vodarr/vodarr/internal/config"
	"github.com/vodarr/vodarr/internal/observability"
	"github.com/vodarr/vodarr/internal/storage"
)

// coverFileName is the local and remote name of the processed artwork.
const coverFileName = "cover.jpg"

// ObjectStore uploads the processed cover, skipping keys that already exist.
type ObjectStore interface {
	UploadIfAbsent(ctx context.Context, localPath, key string) (bool, error)
}

// Processor normalizes and publishes cover images.
type Processor struct {
	store     ObjectStore
	workspace *storage.Workspace
	storCfg   config.StorageConfig
	width     int
	height    int
	quality   int
	logger    *slog.Logger
}

// NewProcessor builds a Processor from the transcode presets.
func NewProcessor(store ObjectStore, ws *storage.Workspace, storCfg config.StorageConfig, presets config.TranscodeConfig, logger *slog.Logger) *Processor {
	return &Processor{
		store:     store,
		workspace: ws,
		storCfg:   storCfg,
		width:     presets.CoverWidth,
		height:    presets.CoverHeight,
		quality:   presets.CoverQuality,
		logger:    observability.WithComponent(logger, "cover"),
	}
}

// Process hashes the source image, crops and scales it to the configured
// frame and uploads the JPEG. It returns the cover hash the catalog stores
// on the movie or series row. Processing the same source image twice is a
// no-op on the remote side.
func (p *Processor) Process(ctx context.Context, sourcePath string) (string, error) {
	if !storage.FileExists(sourcePath) {
		return "", fmt.Errorf("cover source %s: file not found", sourcePath)
	}

	hash, err := storage.HashFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("hashing cover source: %w", err)
	}

	img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decoding cover source: %w", err)
	}
	framed := imaging.Fill(img, p.width, p.height, imaging.Center, imaging.Lanczos)

	workDir, err := p.workspace.Create(hash)
	if err != nil {
		return "", fmt.Errorf("creating cover work dir: %w", err)
	}
	defer func() {
		if err := p.workspace.Remove(hash); err != nil {
			p.logger.Warn("failed to remove cover work dir", "cover_hash", hash, "error", err)
		}
	}()

	outputFile := filepath.Join(workDir, coverFileName)
	if err := imaging.Save(framed, outputFile, imaging.JPEGQuality(p.quality)); err != nil {
		return "", fmt.Errorf("encoding cover: %w", err)
	}

	key := p.storCfg.CoverKey(hash)
	uploaded, err := p.store.UploadIfAbsent(ctx, outputFile, key)
	if err != nil {
		return "", fmt.Errorf("uploading cover: %w", err)
	}

	p.logger.Info("cover processed",
		slog.String("cover_hash", hash),
		slog.String("key", key),
		slog.Bool("uploaded", uploaded))
	return hash, nil
}
