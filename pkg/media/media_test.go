package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"voicebank/errs"
)

func TestParseProbeOutput(t *testing.T) {
	out := []byte(`{
		"streams": [{"codec_name": "opus"}],
		"format": {"format_name": "ogg"}
	}`)

	formats, err := parseProbeOutput(out)
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if len(formats) != 1 {
		t.Fatalf("got %d formats, want 1", len(formats))
	}
	if formats[0].Container != "ogg" || formats[0].Codec != "opus" {
		t.Errorf("format = %s, want ogg/opus", formats[0])
	}
}

func TestParseProbeOutputMultipleContainers(t *testing.T) {
	out := []byte(`{
		"streams": [{"codec_name": "aac"}],
		"format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
	}`)

	formats, err := parseProbeOutput(out)
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if len(formats) != 6 {
		t.Fatalf("got %d formats, want 6", len(formats))
	}
	for _, f := range formats {
		if f.Codec != "aac" {
			t.Errorf("codec = %q, want aac", f.Codec)
		}
	}
	if formats[0].Container != "mov" || formats[1].Container != "mp4" {
		t.Errorf("containers = %s, %s, want mov, mp4", formats[0], formats[1])
	}
}

func TestParseProbeOutputRejectsMultipleStreams(t *testing.T) {
	out := []byte(`{
		"streams": [{"codec_name": "opus"}, {"codec_name": "h264"}],
		"format": {"format_name": "ogg"}
	}`)

	_, err := parseProbeOutput(out)
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestParseProbeOutputRejectsEmpty(t *testing.T) {
	for _, tc := range []struct {
		name string
		out  string
	}{
		{"no streams", `{"streams": [], "format": {"format_name": "ogg"}}`},
		{"no format name", `{"streams": [{"codec_name": "opus"}], "format": {}}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseProbeOutput([]byte(tc.out))
			if !errors.Is(err, errs.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestParseProbeOutputMalformedJSON(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	if !errors.Is(err, errs.ErrProbeFailed) {
		t.Fatalf("err = %v, want ErrProbeFailed", err)
	}
}

func TestTranscodePassthrough(t *testing.T) {
	tool := NewFFmpeg("ffprobe", "ffmpeg", 0, 0)
	payload := "already canonical bytes"
	format := Format{Container: "ogg", Codec: "opus"}

	out, err := tool.Transcode(context.Background(), strings.NewReader(payload), format, format)
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	defer out.Close()

	got, err := io.ReadAll(out)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != payload {
		t.Errorf("passthrough changed bytes: got %q, want %q", got, payload)
	}
}

func TestEncoderFor(t *testing.T) {
	for _, tc := range []struct {
		codec string
		want  string
	}{
		{"opus", "libopus"},
		{"vorbis", "libvorbis"},
		{"mp3", "libmp3lame"},
		{"flac", "flac"},
	} {
		if got := encoderFor(tc.codec); got != tc.want {
			t.Errorf("encoderFor(%q) = %q, want %q", tc.codec, got, tc.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("line one\nline two"); got != "line one" {
		t.Errorf("firstLine = %q", got)
	}
	if got := firstLine("no newline"); got != "no newline" {
		t.Errorf("firstLine = %q", got)
	}
}
