package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"

	apperrors "go-content-moderator/internal/errors"
)

// FFmpegDecoder streams raw RGB frames from an ffmpeg subprocess. Stream
// geometry and frame rate come from a preceding ffprobe call.
type FFmpegDecoder struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    bytes.Buffer
	width     int
	height    int
	frameRate float64
	frameBuf  []byte
}

type probeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// NewFFmpegDecoder opens path for sequential frame decoding. An unreadable
// or codec-less source fails here with VideoDecodeFailed.
func NewFFmpegDecoder(ctx context.Context, ffmpegPath, ffprobePath, path string) (*FFmpegDecoder, error) {
	width, height, rate, err := probe(ctx, ffprobePath, path)
	if err != nil {
		return nil, apperrors.NewVideoDecodeError("failed to probe video source", err)
	}

	d := &FFmpegDecoder{
		width:     width,
		height:    height,
		frameRate: rate,
		frameBuf:  make([]byte, width*height*3),
	}

	d.cmd = exec.CommandContext(ctx, ffmpegPath,
		"-v", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	d.cmd.Stderr = &d.stderr

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return nil, apperrors.NewVideoDecodeError("failed to open decoder pipe", err)
	}
	d.stdout = stdout

	if err := d.cmd.Start(); err != nil {
		return nil, apperrors.NewVideoDecodeError("failed to start ffmpeg", err)
	}
	return d, nil
}

func probe(ctx context.Context, ffprobePath, path string) (width, height int, rate float64, err error) {
	out, err := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbeOutput(out, path)
}

// parseProbeOutput validates stream geometry and frame rate. Sources
// without a positive frame rate (still images probe as "0/1") cannot be
// sampled and are rejected here.
func parseProbeOutput(out []byte, path string) (width, height int, rate float64, err error) {
	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe output: %w", err)
	}
	if len(po.Streams) == 0 {
		return 0, 0, 0, fmt.Errorf("no video stream in %s", path)
	}
	s := po.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid stream geometry %dx%d", s.Width, s.Height)
	}
	rate, err = parseFrameRate(s.RFrameRate)
	if err != nil {
		return 0, 0, 0, err
	}
	if rate <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid frame rate %q", s.RFrameRate)
	}
	return s.Width, s.Height, rate, nil
}

// parseFrameRate handles ffprobe's rational notation, e.g. "30000/1001".
func parseFrameRate(value string) (float64, error) {
	num, den, found := strings.Cut(value, "/")
	if !found {
		return strconv.ParseFloat(value, 64)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("frame rate %q: %w", value, err)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("frame rate %q: invalid denominator", value)
	}
	return n / d, nil
}

func (d *FFmpegDecoder) FrameRate() float64 {
	return d.frameRate
}

// Next reads one raw RGB frame from the pipe. io.EOF means the stream
// ended cleanly; a short read means the source was truncated mid-frame.
func (d *FFmpegDecoder) Next() (image.Image, error) {
	_, err := io.ReadFull(d.stdout, d.frameBuf)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("truncated frame: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	for i := 0; i < d.width*d.height; i++ {
		img.Pix[i*4] = d.frameBuf[i*3]
		img.Pix[i*4+1] = d.frameBuf[i*3+1]
		img.Pix[i*4+2] = d.frameBuf[i*3+2]
		img.Pix[i*4+3] = 0xff
	}
	return img, nil
}

// Close tears down the subprocess. Safe to call after EOF or mid-stream.
func (d *FFmpegDecoder) Close() error {
	d.stdout.Close()
	err := d.cmd.Wait()
	if err != nil && d.stderr.Len() > 0 {
		return fmt.Errorf("ffmpeg: %s", strings.TrimSpace(d.stderr.String()))
	}
	return err
}
