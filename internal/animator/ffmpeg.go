package animator

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/Bruno02468/gifception/internal/config"
	"github.com/Bruno02468/gifception/internal/storage"
)

// FFmpegBackend drives the ffmpeg command line, which can write proper
// video on top of GIFs. It requires a working ffmpeg install.
type FFmpegBackend struct{}

func (b *FFmpegBackend) Name() string { return "ffmpeg" }

func (b *FFmpegBackend) Description() string {
	return "Drives the ffmpeg binary. Writes GIFs and proper video, but needs ffmpeg on the PATH."
}

func (b *FFmpegBackend) Available() (bool, string) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return false, "no ffmpeg binary in PATH"
	}
	return true, "ffmpeg found at " + path
}

func (b *FFmpegBackend) Formats() []string { return []string{"gif", "webm", "mp4"} }

func (b *FFmpegBackend) Render(ctx context.Context, dir *storage.FrameDir, params config.Params, path, format string) error {
	args := b.buildArgs(dir, params, path, format, bestH264Encoder())
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg %s encode error: %v, output: %s", format, err, string(out))
	}
	return nil
}

var h264Once struct {
	sync.Once
	encoder string
}

// bestH264Encoder probes ffmpeg for a hardware H.264 encoder and falls
// back to libx264. Probed once per process.
func bestH264Encoder() string {
	h264Once.Do(func() {
		h264Once.encoder = "libx264"
		out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
		if err != nil {
			return
		}
		for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
			if strings.Contains(string(out), name) {
				h264Once.encoder = name
				return
			}
		}
	})
	return h264Once.encoder
}

func (b *FFmpegBackend) buildArgs(dir *storage.FrameDir, params config.Params, path, format string, h264 string) []string {
	args := []string{
		"-y",
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-start_number", "1",
		"-i", dir.Pattern(),
	}

	fpsFilter := fmt.Sprintf("fps=%d:round=up", params.FPS)
	switch format {
	case "gif":
		// A palette generated from the actual frames beats the stock
		// 256-color one by a lot.
		args = append(args,
			"-filter_complex", fpsFilter+",split[a][b];[a]palettegen[p];[b][p]paletteuse",
		)
	case "mp4":
		// H.264 wants even dimensions.
		args = append(args,
			"-vf", fpsFilter+",scale=trunc(iw/2)*2:trunc(ih/2)*2",
			"-c:v", h264,
			"-pix_fmt", "yuv420p",
		)
		args = append(args, rateArgs(h264)...)
	default: // webm
		args = append(args,
			"-vf", fpsFilter,
			"-pix_fmt", "yuv420p",
		)
	}

	args = append(args, path)
	return args
}

// rateArgs picks rate-control flags per encoder; the hardware encoders
// ignore -crf.
func rateArgs(h264 string) []string {
	switch h264 {
	case "h264_videotoolbox":
		return []string{"-b:v", "7500k"}
	case "h264_nvenc":
		return []string{"-cq", "28"}
	default: // libx264
		return []string{"-crf", "18", "-preset", "medium"}
	}
}
