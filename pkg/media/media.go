// Package media drives the external ffprobe/ffmpeg tools used to identify
// and normalize uploaded audio. Both operations are stream-based and
// bounded by timeouts so a stuck subprocess can never wedge a request.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voicebank/errs"
)

// Tool probes and transcodes audio streams. A native-binding
// implementation can replace the subprocess one without changing callers.
type Tool interface {
	// Probe identifies the stream's encoding. The container side may have
	// several candidate names (ffprobe reports e.g. "mov,mp4,m4a"), so one
	// Format per candidate container is returned, all sharing the codec.
	Probe(ctx context.Context, r io.Reader) ([]Format, error)

	// Transcode converts src-encoded audio into dst encoding. When src
	// equals dst the input is returned unchanged and no subprocess is
	// spawned. The returned reader must be closed; closing kills any
	// still-running subprocess.
	Transcode(ctx context.Context, r io.Reader, src, dst Format) (io.ReadCloser, error)
}

// FFmpeg runs ffprobe/ffmpeg binaries.
type FFmpeg struct {
	FFprobePath      string
	FFmpegPath       string
	ProbeTimeout     time.Duration
	TranscodeTimeout time.Duration
}

func NewFFmpeg(ffprobePath, ffmpegPath string, probeTimeout, transcodeTimeout time.Duration) *FFmpeg {
	return &FFmpeg{
		FFprobePath:      ffprobePath,
		FFmpegPath:       ffmpegPath,
		ProbeTimeout:     probeTimeout,
		TranscodeTimeout: transcodeTimeout,
	}
}

var ffprobeArgs = []string{
	"-hide_banner",
	"-v", "error",
	"-of", "json",
	"-show_format",
	"-show_entries", "stream=codec_name",
}

type probeOutput struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
	} `json:"format"`
}

func (t *FFmpeg) Probe(ctx context.Context, r io.Reader) ([]Format, error) {
	// ffprobe wants seekable input, so spool to a temp file first.
	tmp, err := os.CreateTemp("", "probe-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %v", errs.ErrProbeFailed, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return nil, fmt.Errorf("%w: spool input: %v", errs.ErrProbeFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.FFprobePath, append(append([]string{}, ffprobeArgs...), tmp.Name())...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: ffprobe timed out after %s", errs.ErrProbeFailed, t.ProbeTimeout)
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("stderr", stderr.String()).Msg("ffprobe failed")
		return nil, fmt.Errorf("%w: %v", errs.ErrProbeFailed, err)
	}

	return parseProbeOutput(out)
}

func parseProbeOutput(out []byte) ([]Format, error) {
	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed ffprobe output: %v", errs.ErrProbeFailed, err)
	}

	if len(parsed.Streams) == 0 || parsed.Format.FormatName == "" {
		return nil, fmt.Errorf("%w: unrecognized audio", errs.ErrInvalidInput)
	}
	if len(parsed.Streams) != 1 {
		return nil, fmt.Errorf("%w: expected 1 stream, got %d", errs.ErrInvalidInput, len(parsed.Streams))
	}

	codec := parsed.Streams[0].CodecName

	// ffprobe may report several candidate container names, comma
	// separated.
	var formats []Format
	for _, container := range strings.Split(parsed.Format.FormatName, ",") {
		if container == "" {
			continue
		}
		formats = append(formats, Format{Container: container, Codec: codec})
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: unrecognized audio", errs.ErrInvalidInput)
	}
	return formats, nil
}

// encoders maps codec names as ffprobe reports them to the ffmpeg encoder
// that produces them.
var encoders = map[string]string{
	"opus":   "libopus",
	"vorbis": "libvorbis",
	"mp3":    "libmp3lame",
}

func encoderFor(codec string) string {
	if enc, ok := encoders[codec]; ok {
		return enc
	}
	return codec
}

func (t *FFmpeg) Transcode(ctx context.Context, r io.Reader, src, dst Format) (io.ReadCloser, error) {
	if src.Equal(dst) {
		// Already canonical, pass through byte-identical.
		return io.NopCloser(r), nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.TranscodeTimeout)

	cmd := exec.CommandContext(ctx, t.FFmpegPath,
		"-hide_banner",
		"-v", "error",
		"-i", "pipe:0",
		"-vn",
		"-c:a", encoderFor(dst.Codec),
		"-f", dst.Container,
		"pipe:1",
	)
	cmd.Stdin = r
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", errs.ErrTranscodeFailed, err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", errs.ErrTranscodeFailed, err)
	}

	return &transcodeReader{
		cmd:     cmd,
		out:     stdout,
		stderr:  &stderr,
		ctx:     ctx,
		cancel:  cancel,
		timeout: t.TranscodeTimeout,
	}, nil
}

// transcodeReader streams ffmpeg stdout. Memory use stays bounded: output
// is read incrementally and a slow consumer applies back-pressure through
// the OS pipes. Close kills the subprocess if it is still running.
type transcodeReader struct {
	cmd     *exec.Cmd
	out     io.ReadCloser
	stderr  *bytes.Buffer
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	waitOnce sync.Once
	waitErr  error
}

func (tr *transcodeReader) Read(p []byte) (int, error) {
	n, err := tr.out.Read(p)
	if errors.Is(err, io.EOF) {
		// Output drained; surface the subprocess exit status instead of a
		// bare EOF when it failed.
		if waitErr := tr.wait(); waitErr != nil {
			return n, waitErr
		}
		return n, io.EOF
	}
	if err != nil && tr.ctx.Err() != nil {
		tr.wait()
		return n, fmt.Errorf("%w after %s", errs.ErrTranscodeTimeout, tr.timeout)
	}
	return n, err
}

func (tr *transcodeReader) Close() error {
	// Cancelling kills the subprocess if it has not exited yet; wait
	// releases its handles either way.
	tr.cancel()
	tr.out.Close()
	tr.wait()
	return nil
}

func (tr *transcodeReader) wait() error {
	tr.waitOnce.Do(func() {
		err := tr.cmd.Wait()
		tr.cancel()
		if err == nil {
			return
		}
		if errors.Is(tr.ctx.Err(), context.DeadlineExceeded) {
			tr.waitErr = fmt.Errorf("%w after %s", errs.ErrTranscodeTimeout, tr.timeout)
			return
		}
		tr.waitErr = fmt.Errorf("%w: %v: %s", errs.ErrTranscodeFailed, err, firstLine(tr.stderr.String()))
	})
	return tr.waitErr
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
