package ffmpeg

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/videoflix/vod/internal/domain"
	"github.com/videoflix/vod/internal/hls"
)

// Encoder produces one HLS rendition per invocation: the rendition directory
// is created if absent and its contents are fully replaced on each run.
type Encoder struct {
	runner  *Runner
	builder *CommandBuilder
	logger  *zap.Logger
}

// NewEncoder creates a new encoder
func NewEncoder(runner *Runner, builder *CommandBuilder, logger *zap.Logger) *Encoder {
	return &Encoder{
		runner:  runner,
		builder: builder,
		logger:  logger,
	}
}

// EncodeRendition encodes sourcePath into the rendition directory described by
// paths. The source file must exist; that precondition is checked by the
// caller before any encode is attempted.
func (e *Encoder) EncodeRendition(ctx context.Context, sourcePath string, r domain.Rendition, paths hls.RenditionPaths) error {
	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create rendition directory %s: %w", paths.Dir, err)
	}

	cmd := e.builder.BuildRenditionCommand(sourcePath, r, paths)

	e.logger.Debug("running encode",
		zap.String("rendition", r.Label),
		zap.String("manifest", cmd.ManifestPath),
	)

	return e.runner.Run(ctx, cmd.Args)
}
