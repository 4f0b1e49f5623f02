// Package wavsrc loads PCM samples from WAV recordings.
package wavsrc

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-audio/wav"
)

// ErrInvalidWAV indicates a file that is not a PCM WAV recording.
var ErrInvalidWAV = errors.New("invalid wav file")

// File is one decoded recording.
type File struct {
	Path string
	// Samples holds the raw frames: each sample is BitDepth/8 little-endian
	// bytes, channels interleaved, exactly as stored in the data chunk.
	Samples    []byte
	SampleRate int
	BitDepth   int
	Channels   int
}

// Read decodes one WAV stream.
func Read(r io.ReadSeeker) (*File, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode pcm: %w", err)
	}

	width := int(d.BitDepth) / 8
	if width < 1 || width > 4 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, d.BitDepth)
	}
	samples := make([]byte, 0, len(buf.Data)*width)
	for _, v := range buf.Data {
		for i := 0; i < width; i++ {
			samples = append(samples, byte(uint32(v)>>(8*i)))
		}
	}

	return &File{
		Samples:    samples,
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
		Channels:   int(d.NumChans),
	}, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wf, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	wf.Path = path
	return wf, nil
}

// Load decodes every *.wav file below dir, sorted by path. Other files are
// ignored.
func Load(dir string) ([]*File, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".wav") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	slices.Sort(paths)

	files := make([]*File, 0, len(paths))
	for _, path := range paths {
		f, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Concat joins the samples of files in order.
func Concat(files []*File) []byte {
	n := 0
	for _, f := range files {
		n += len(f.Samples)
	}
	out := make([]byte, 0, n)
	for _, f := range files {
		out = append(out, f.Samples...)
	}
	return out
}
