package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/voxsplit/voxsplit/pkg/logger"
)

// FFmpeg implements Prober and Transcoder using the ffmpeg/ffprobe binaries
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	sampleRate  int
	channels    int
	bitrate     string
	logger      *logger.Logger
}

var (
	_ Prober     = (*FFmpeg)(nil)
	_ Transcoder = (*FFmpeg)(nil)
)

// Options configures the FFmpeg collaborator
type Options struct {
	FFmpegPath  string
	FFprobePath string
	SampleRate  int
	Channels    int
	Bitrate     string
}

// NewFFmpeg creates a new ffmpeg-backed prober/transcoder
func NewFFmpeg(opts Options, logger *logger.Logger) *FFmpeg {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = 16000
	}
	if opts.Channels == 0 {
		opts.Channels = 1
	}
	if opts.Bitrate == "" {
		opts.Bitrate = "64k"
	}
	return &FFmpeg{
		ffmpegPath:  opts.FFmpegPath,
		ffprobePath: opts.FFprobePath,
		sampleRate:  opts.SampleRate,
		channels:    opts.Channels,
		bitrate:     opts.Bitrate,
		logger:      logger.Named("ffmpeg"),
	}
}

// probeOutput mirrors the ffprobe -print_format json format section
type probeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// Probe inspects the file with ffprobe and returns its duration and size
func (f *FFmpeg) Probe(ctx context.Context, path string) (Info, error) {
	if _, err := os.Stat(path); err != nil {
		return Info{}, &ProbeError{Path: path, Err: err}
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		f.logger.Error("ffprobe failed",
			logger.String("path", path),
			logger.String("stderr", strings.TrimSpace(stderr.String())),
			logger.Error(err),
		)
		return Info{}, &ProbeError{Path: path, Err: fmt.Errorf("ffprobe: %w", err)}
	}

	info, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return Info{}, &ProbeError{Path: path, Err: err}
	}

	// ffprobe omits size for some containers; fall back to the filesystem
	if info.SizeBytes == 0 {
		if fi, err := os.Stat(path); err == nil {
			info.SizeBytes = fi.Size()
		}
	}

	f.logger.Debug("Probed media file",
		logger.String("path", path),
		logger.Float64("duration_sec", info.DurationSec),
		logger.Int64("size_bytes", info.SizeBytes),
	)
	return info, nil
}

// parseProbeOutput decodes ffprobe JSON into an Info
func parseProbeOutput(data []byte) (Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Info{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return Info{}, fmt.Errorf("failed to parse duration %q: %w", out.Format.Duration, err)
	}
	if duration <= 0 {
		return Info{}, fmt.Errorf("non-positive media duration: %f", duration)
	}

	info := Info{
		DurationSec: duration,
		Format:      out.Format.FormatName,
	}
	if out.Format.Size != "" {
		if size, err := strconv.ParseInt(out.Format.Size, 10, 64); err == nil {
			info.SizeBytes = size
		}
	}
	if out.Format.BitRate != "" {
		if br, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil {
			info.BitRate = br
		}
	}
	return info, nil
}

// Render transcodes the requested time range of srcPath into destPath.
// The output is re-encoded at speech-recognition quality, not copied, so
// segment boundaries land exactly where requested.
func (f *FFmpeg) Render(ctx context.Context, srcPath string, startSec, durationSec float64, destPath string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-y",
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-i", srcPath,
		"-ac", strconv.Itoa(f.channels),
		"-ar", strconv.Itoa(f.sampleRate),
		"-b:a", f.bitrate,
		destPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Debug("Rendering audio segment",
		logger.String("src", srcPath),
		logger.String("dest", destPath),
		logger.Float64("start_sec", startSec),
		logger.Float64("duration_sec", durationSec),
	)

	if err := cmd.Run(); err != nil {
		f.logger.Error("ffmpeg render failed",
			logger.String("dest", destPath),
			logger.String("stderr", strings.TrimSpace(stderr.String())),
			logger.Error(err),
		)
		return fmt.Errorf("ffmpeg render of %s failed: %w", destPath, err)
	}
	return nil
}

// ExtractAudio pulls the audio track out of a video file into an mp3 in
// destDir and returns the new path. Thin glue in front of the pipeline; the
// returned file is what gets probed and segmented.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, destDir string) (string, error) {
	if destDir == "" {
		destDir = os.TempDir()
	}
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	destPath := filepath.Join(destDir, base+".mp3")

	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-y",
		"-i", videoPath,
		"-vn",
		"-ac", strconv.Itoa(f.channels),
		"-ar", strconv.Itoa(f.sampleRate),
		"-b:a", f.bitrate,
		destPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		f.logger.Error("Audio extraction failed",
			logger.String("video", videoPath),
			logger.String("stderr", strings.TrimSpace(stderr.String())),
			logger.Error(err),
		)
		return "", fmt.Errorf("ffmpeg audio extraction of %s failed: %w", videoPath, err)
	}

	f.logger.Info("Extracted audio track",
		logger.String("video", videoPath),
		logger.String("audio", destPath),
	)
	return destPath, nil
}

// formatSeconds renders a float seconds value for ffmpeg arguments
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
