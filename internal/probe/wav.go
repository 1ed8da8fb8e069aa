package probe

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadMetadataWAV decodes the header of a WAV file without reading samples.
func ReadMetadataWAV(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	duration, err := decoder.Duration()
	if err != nil {
		return nil, fmt.Errorf("reading WAV duration: %w", err)
	}

	format := decoder.Format()
	if format == nil {
		format = &audio.Format{
			NumChannels: int(decoder.NumChans),
			SampleRate:  int(decoder.SampleRate),
		}
	}

	return &Metadata{
		Filename:    filepath.Base(path),
		Format:      "wav",
		DurationSec: duration.Seconds(),
		SampleRate:  format.SampleRate,
		Channels:    format.NumChannels,
		BitDepth:    int(decoder.BitDepth),
		AudioCodec:  fmt.Sprintf("pcm_%dbit", decoder.BitDepth),
	}, nil
}
