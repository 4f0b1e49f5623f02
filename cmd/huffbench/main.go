// Command huffbench runs the Huffman experiments on a directory of WAV
// recordings: group sizes, training sample sizes and bit loss.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/nemuru-pigeon/huffman"
	"github.com/nemuru-pigeon/huffman/internal/experiment"
	"github.com/nemuru-pigeon/huffman/internal/wavsrc"
)

func main() {
	dir := flag.String("dir", "database", "directory searched for *.wav files")
	groups := flag.Int("groups", 5, "number of group sizes to try (1, 2, 4, ...)")
	lose := flag.Int("lose", 5, "number of bits removed in the bit loss experiment")
	seed := flag.Uint64("seed", 42, "seed for lost bits and sampled files")
	archive := flag.String("archive", "", "write the full input as an archive to this path")
	verbose := flag.Bool("v", false, "log per-experiment progress")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *dir, *archive, experiment.NewRunner(
		experiment.WithGroupExponents(*groups),
		experiment.WithBitsLost(*lose),
		experiment.WithSeed(*seed),
		experiment.WithLogger(logger),
	)); err != nil {
		logger.Error("huffbench failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, dir, archivePath string, r *experiment.Runner) error {
	files, err := wavsrc.Load(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no wav files in %s", dir)
	}
	input := wavsrc.Concat(files)
	logger.Info("loaded samples", "files", len(files), "bytes", len(input))

	for _, res := range r.GroupSizes(input) {
		logger.Info("group size", "result", res)
	}

	for _, idx := range r.PickFiles(len(files), 4) {
		hist := experiment.Histogram(files[idx].Samples)
		distinct := 0
		for _, n := range hist {
			if n > 0 {
				distinct++
			}
		}
		logger.Info("histogram", "file", files[idx].Path, "distinct", distinct, "counts", hist[:])
	}

	for _, res := range r.TrainingPercentages(files[0].Samples, input) {
		logger.Info("training percentage", "result", res)
	}

	loss, err := r.BitLoss(input)
	if err != nil {
		return err
	}
	logger.Info("bit loss", "result", loss)

	if archivePath != "" {
		return writeArchive(logger, archivePath, input)
	}
	return nil
}

func writeArchive(logger *slog.Logger, path string, input []byte) error {
	m, err := huffman.TrainModel(input)
	if err != nil {
		return err
	}
	a, err := m.EncodeArchive(input, huffman.ByteCodec{})
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := a.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write archive %s: %w", path, err)
	}
	logger.Info("archive written", "path", path, "bytes", n, "input_bytes", len(input),
		"ratio", float64(len(input))/float64(max(n, 1)))
	return nil
}
