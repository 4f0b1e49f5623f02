package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/nemuru-pigeon/huffman"
	"github.com/nemuru-pigeon/huffman/internal/experiment"
)

func writeTone(t *testing.T, path string, n int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data := make([]int, n)
	for i := range data {
		data[i] = 120 + i%16
	}
	enc := wav.NewEncoder(f, 8000, 8, 1, 1)
	if err := enc.Write(&audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: 8000}, Data: data, SourceBitDepth: 8}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeTone(t, filepath.Join(dir, "one.wav"), 512)
	writeTone(t, filepath.Join(dir, "two.wav"), 256)
	archivePath := filepath.Join(t.TempDir(), "out.hufa")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	r := experiment.NewRunner(experiment.WithGroupExponents(3), experiment.WithPercentages(10, 100), experiment.WithLogger(logger))
	if err := run(logger, dir, archivePath, r); err != nil {
		t.Fatal(err)
	}
	for _, msg := range []string{"group size", "histogram", "training percentage", "bit loss", "archive written"} {
		if !bytes.Contains(logs.Bytes(), []byte(msg)) {
			t.Errorf("missing %q in log output", msg)
		}
	}

	f, err := os.Open(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	a := huffman.NewArchive[byte](huffman.ByteCodec{})
	if _, err := a.ReadFrom(f); err != nil {
		t.Fatal(err)
	}
	out, err := a.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 768 {
		t.Fatalf("archive holds %d samples", len(out))
	}
}

func TestRunEmptyDir(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run(logger, t.TempDir(), "", experiment.NewRunner(experiment.WithLogger(logger))); err == nil {
		t.Fatal("expected an error for a directory without recordings")
	}
}
