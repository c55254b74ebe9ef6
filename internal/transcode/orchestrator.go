package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/vodarr/vodarr/internal/config"
	"github.com/vodarr/vodarr/internal/ffmpeg"
	"github.com/vodarr/vodarr/internal/models"
	"github.com/vodarr/vodarr/internal/observability"
	"github.com/vodarr/vodarr/internal/storage"
)

// Prober probes a local media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
}

// Encoder runs the external encoder for one output file.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputPath string, args []string, durationSeconds float64, onProgress ffmpeg.ProgressFunc) error
	Run(ctx context.Context, inputPath, outputPath string, args []string) error
}

// ObjectStore uploads completed artifacts, skipping keys that already exist.
type ObjectStore interface {
	UploadIfAbsent(ctx context.Context, localPath, key string) (bool, error)
}

// Result summarizes one completed orchestrator run; its fields are what the
// coordinator persists on the Video row.
type Result struct {
	AvailableResolutions []int
	AvailableSubtitles   []string
	Duration             float64
}

// Orchestrator produces every active rendition for one source file, uploading
// each as it completes, then extracts and uploads subtitle tracks.
type Orchestrator struct {
	prober    Prober
	encoder   Encoder
	store     ObjectStore
	workspace *storage.Workspace
	storCfg   config.StorageConfig
	presets   config.TranscodeConfig
	logger    *slog.Logger
}

// NewOrchestrator creates a transcode orchestrator.
func NewOrchestrator(
	prober Prober,
	encoder Encoder,
	store ObjectStore,
	workspace *storage.Workspace,
	storCfg config.StorageConfig,
	presets config.TranscodeConfig,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		prober:    prober,
		encoder:   encoder,
		store:     store,
		workspace: workspace,
		storCfg:   storCfg,
		presets:   presets,
		logger:    observability.WithComponent(logger, "transcode"),
	}
}

// Run transcodes the source into the full active ladder and uploads each
// rendition and subtitle file. Rungs encode strictly sequentially, ascending,
// which bounds local disk and CPU use and keeps progress monotonic. Any
// encoder failure aborts the whole run; no partial resolution list is ever
// returned. The working directory is removed on exit, success or failure.
func (o *Orchestrator) Run(ctx context.Context, sourcePath, contentHash string, onProgress ffmpeg.ProgressFunc) (result *Result, err error) {
	workDir, err := o.workspace.Create(contentHash)
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	defer func() {
		if rmErr := o.workspace.Remove(contentHash); rmErr != nil {
			o.logger.Warn("failed to remove work directory",
				slog.String("path", workDir),
				slog.String("error", rmErr.Error()),
			)
		}
	}()

	probe, err := o.prober.Probe(ctx, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("probing source: %w", err)
	}

	sel, err := SelectStreams(probe)
	if err != nil {
		return nil, err
	}
	if !sel.HasAudio() {
		o.logger.Warn("no compatible audio streams, output will be silent",
			slog.String("content_hash", contentHash))
	}

	duration := sel.Video.DurationSeconds()
	if duration == 0 {
		duration = probe.DurationSeconds()
	}

	rungs := PlanLadder(sel.Video.Width, sel.Video.Height)
	total := len(rungs)
	o.logger.Info("planned quality ladder",
		slog.String("content_hash", contentHash),
		slog.Int("rungs", total),
		slog.Int("source_width", sel.Video.Width),
		slog.Int("source_height", sel.Video.Height),
	)

	for index, rung := range rungs {
		name := fmt.Sprintf("_%dp.mp4", rung.Height)
		outputFile := filepath.Join(workDir, name)
		args := BuildArgs(rung, index, total, sel, o.presets)

		rungProgress := func(pct float64) {
			if onProgress == nil {
				return
			}
			overall := (float64(index) + pct/100) / float64(total) * 100
			onProgress(math.Round(overall))
		}

		if err := o.encoder.Encode(ctx, sourcePath, outputFile, args, duration, rungProgress); err != nil {
			return nil, fmt.Errorf("encoding %dp rendition: %w: %w", rung.Height, models.ErrEncodeFailure, err)
		}

		key := o.storCfg.VideoKey(contentHash, name)
		if _, err := o.store.UploadIfAbsent(ctx, outputFile, key); err != nil {
			return nil, fmt.Errorf("uploading %dp rendition: %w", rung.Height, err)
		}

		o.logger.Info("rendition complete",
			slog.String("content_hash", contentHash),
			slog.Int("height", rung.Height),
			slog.Int("index", index+1),
			slog.Int("total", total),
		)
	}

	subtitles, err := o.extractSubtitles(ctx, sourcePath, workDir, contentHash, sel.Subtitles)
	if err != nil {
		return nil, err
	}

	return &Result{
		AvailableResolutions: Heights(rungs),
		AvailableSubtitles:   subtitles,
		Duration:             duration,
	}, nil
}

// extractSubtitles extracts each subtitle stream to WebVTT and uploads it.
// Returns the assigned identifiers in processing order; that order is what
// gets persisted as the catalog's subtitle availability list.
func (o *Orchestrator) extractSubtitles(ctx context.Context, sourcePath, workDir, contentHash string, streams []ffmpeg.ProbeStream) ([]string, error) {
	if len(streams) == 0 {
		o.logger.Warn("no subtitle streams to extract",
			slog.String("content_hash", contentHash))
		return nil, nil
	}

	namer := newSubtitleNamer()
	identifiers := make([]string, 0, len(streams))

	for ordinal, stream := range streams {
		name := namer.next(stream.Language(), stream.IsForced())
		fileName := name + ".vtt"
		outputFile := filepath.Join(workDir, fileName)

		args := []string{
			"-map", fmt.Sprintf("0:s:%d?", ordinal),
			"-c:s", "webvtt",
		}
		if err := o.encoder.Run(ctx, sourcePath, outputFile, args); err != nil {
			return nil, fmt.Errorf("extracting subtitle %s: %w", name, err)
		}

		key := o.storCfg.VideoKey(contentHash, fileName)
		if _, err := o.store.UploadIfAbsent(ctx, outputFile, key); err != nil {
			return nil, fmt.Errorf("uploading subtitle %s: %w", name, err)
		}

		identifiers = append(identifiers, name)
	}

	o.logger.Info("subtitles extracted",
		slog.String("content_hash", contentHash),
		slog.Int("count", len(identifiers)),
	)
	return identifiers, nil
}
