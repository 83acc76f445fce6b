package ffmpeg

import (
	"fmt"

	"github.com/videoflix/vod/internal/domain"
	"github.com/videoflix/vod/internal/hls"
)

// CommandBuilder builds FFmpeg commands
type CommandBuilder struct {
	segmentDuration int
}

// NewCommandBuilder creates a new command builder
func NewCommandBuilder(segmentDuration int) *CommandBuilder {
	return &CommandBuilder{segmentDuration: segmentDuration}
}

// Command holds one FFmpeg invocation's arguments and its primary output.
type Command struct {
	Args         []string
	ManifestPath string
}

// BuildRenditionCommand builds the command encoding one source file into one
// HLS rendition. -2 lets the scaler pick an even width for the target height;
// -hls_list_size 0 keeps every segment in the playlist so the full playlist is
// rewritten on each run, and -y overwrites any previous output in place.
func (b *CommandBuilder) BuildRenditionCommand(inputPath string, r domain.Rendition, paths hls.RenditionPaths) *Command {
	args := []string{
		"-y",
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:%d", r.Height),
		"-c:v", "h264",
		"-b:v", r.VideoBitrate,
		"-c:a", "aac",
		"-b:a", r.AudioBitrate,
		"-hls_time", fmt.Sprintf("%d", b.segmentDuration),
		"-hls_list_size", "0",
		"-hls_segment_filename", paths.SegmentPattern,
		paths.Manifest,
	}

	return &Command{
		Args:         args,
		ManifestPath: paths.Manifest,
	}
}
