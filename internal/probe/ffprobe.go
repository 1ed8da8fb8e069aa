package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

type ffprobeOutput struct {
	Format struct {
		Filename string `json:"filename"`
		Duration string `json:"duration"`
		Format   string `json:"format_name"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Duration      string `json:"duration"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	BitsPerSample int    `json:"bits_per_sample"`
}

func (p *ffprobeOutput) firstStream(codecType string) *ffprobeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == codecType {
			return &p.Streams[i]
		}
	}
	return nil
}

// Available reports whether ffprobe is on PATH.
func Available() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// ReadMetadataFFprobe runs ffprobe on path. Without a deadline on ctx the
// call is bounded to five seconds.
func ReadMetadataFFprobe(ctx context.Context, path string) (*Metadata, error) {
	if !Available() {
		return nil, ErrProbeUnavailable
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(
		ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseFFprobe(path, out)
}

func parseFFprobe(path string, out []byte) (*Metadata, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("decoding ffprobe output: %w", err)
	}

	video := probe.firstStream("video")
	audio := probe.firstStream("audio")
	if video == nil && audio == nil {
		return nil, ErrNoStream
	}

	meta := &Metadata{
		Filename: filepath.Base(path),
		Format:   probe.Format.Format,
	}
	meta.DurationSec, _ = strconv.ParseFloat(probe.Format.Duration, 64)

	if video != nil {
		meta.Width = video.Width
		meta.Height = video.Height
		meta.VideoCodec = video.CodecName
		if meta.DurationSec == 0 {
			meta.DurationSec, _ = strconv.ParseFloat(video.Duration, 64)
		}
	}
	if audio != nil {
		meta.AudioCodec = audio.CodecName
		meta.SampleRate, _ = strconv.Atoi(audio.SampleRate)
		meta.Channels = audio.Channels
		meta.BitDepth = audio.BitsPerSample
	}
	return meta, nil
}
