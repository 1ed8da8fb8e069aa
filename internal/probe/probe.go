// Package probe reads the metadata the media registry needs from files on disk.
package probe

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/SyncDeck/pkg/models"
	"github.com/himanishpuri/SyncDeck/pkg/utils"
)

type Metadata struct {
	Filename    string
	Format      string
	DurationSec float64
	Width       int
	Height      int
	VideoCodec  string
	AudioCodec  string
	SampleRate  int
	Channels    int
	BitDepth    int
}

// Probe inspects a local file and returns an unregistered MediaFile for it.
// WAV headers are decoded natively; other audio and video need ffprobe.
// Still images fall back to the standard decoders when ffprobe is missing.
func Probe(ctx context.Context, path string) (models.MediaFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return models.MediaFile{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	size, err := utils.FileSize(abs)
	if err != nil {
		return models.MediaFile{}, fmt.Errorf("reading %s: %w", path, err)
	}

	kind := KindFromPath(abs)
	file := models.MediaFile{
		Name:      filepath.Base(abs),
		Kind:      kind,
		URL:       abs,
		SizeBytes: size,
	}

	var meta *Metadata
	switch {
	case kind == "":
		return models.MediaFile{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, filepath.Ext(abs))
	case kind == models.KindDocument:
		return file, nil
	case strings.EqualFold(filepath.Ext(abs), ".wav"):
		meta, err = ReadMetadataWAV(abs)
	case kind == models.KindImage:
		meta, err = ReadMetadataFFprobe(ctx, abs)
		if errors.Is(err, ErrProbeUnavailable) {
			meta, err = readImageConfig(abs)
		}
	default:
		meta, err = ReadMetadataFFprobe(ctx, abs)
	}
	if err != nil {
		return models.MediaFile{}, err
	}

	file.Width, file.Height = meta.Width, meta.Height
	if kind != models.KindImage {
		file.Duration = meta.DurationSec
	}
	return file, nil
}

func readImageConfig(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	return &Metadata{
		Filename: filepath.Base(path),
		Format:   format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}
