// wv2wav is a demo driver that decodes a WavPack file and writes it back out
// as a WAV file, mirroring the teacher's cmd/flac2wav.
package main

import (
	"os"

	mattaudio "github.com/mattetti/audio"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/pkg/dbg"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	wavpack "github.com/soiaf/go-wavpack"
)

var (
	force = pflag.BoolP("force", "f", false, "force overwrite of an existing WAV file")
	limit = pflag.IntP("limit", "n", 0, "stop after this many decoded samples (0 = decode everything)")
)

// summary is the content of the optional <output>.meta.yaml sidecar.
type summary struct {
	SampleRate     int  `yaml:"sample_rate"`
	NumChannels    int  `yaml:"num_channels"`
	BitsPerSample  int  `yaml:"bits_per_sample"`
	SamplesWritten int  `yaml:"samples_written"`
	CRCErrors      int  `yaml:"crc_errors"`
	LossyBlocks    bool `yaml:"lossy_blocks"`
}

func main() {
	pflag.Parse()
	logger := log.New(os.Stderr)

	if pflag.NArg() == 0 {
		if err := wv2wav("input.wv", logger); err != nil {
			logger.Error("decode failed", "err", err)
			os.Exit(1)
		}
		return
	}

	status := 0
	for _, path := range pflag.Args() {
		if err := wv2wav(path, logger); err != nil {
			logger.Error("decode failed", "path", path, "err", err)
			status = 1
		}
	}
	os.Exit(status)
}

func wv2wav(wvPath string, logger *log.Logger) error {
	r, err := os.Open(wvPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close()

	dec, err := wavpack.Open(r)
	if err != nil {
		return errors.Wrapf(err, "opening %q", wvPath)
	}
	dbg.Println("wv2wav: opened stream, sample rate", dec.SampleRate(), "channels", dec.NumChannels())

	wavPath := pathutil.TrimExt(wvPath) + ".wav"
	if !*force && osutil.Exists(wavPath) {
		return errors.Errorf("the file %q exists already; pass -f to overwrite", wavPath)
	}
	fw, err := os.Create(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer fw.Close()

	format := mattaudio.Format{
		NumChannels: dec.NumChannels(),
		SampleRate:  int(dec.SampleRate()),
	}
	logger.Debug("stream format", "channels", format.NumChannels, "rate", format.SampleRate, "bits", dec.BitsPerSample())

	enc := wav.NewEncoder(fw, format.SampleRate, dec.BitsPerSample(), format.NumChannels, 1)

	const chunkSamples = 4096
	chunk := make([]int32, chunkSamples*dec.NumChannels())
	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: format.NumChannels, SampleRate: format.SampleRate},
		SourceBitDepth: dec.BitsPerSample(),
	}

	written := 0
	for *limit == 0 || written < *limit {
		want := chunkSamples
		if *limit != 0 && written+want > *limit {
			want = *limit - written
		}
		n, err := dec.UnpackSamples(chunk, want)
		if err != nil {
			return errors.Wrapf(err, "decoding %q", wvPath)
		}
		if n == 0 {
			break
		}

		slots := n * dec.NumChannels()
		if cap(intBuf.Data) < slots {
			intBuf.Data = make([]int, slots)
		}
		intBuf.Data = intBuf.Data[:slots]
		for i, v := range chunk[:slots] {
			intBuf.Data[i] = int(v)
		}
		if err := enc.Write(intBuf); err != nil {
			return errors.Wrapf(err, "writing %q", wavPath)
		}

		written += n
		logger.Debug("wrote chunk", "samples", n, "crc_errors", dec.NumErrors())
	}

	if err := enc.Close(); err != nil {
		return errors.WithStack(err)
	}

	sum := summary{
		SampleRate:     format.SampleRate,
		NumChannels:    format.NumChannels,
		BitsPerSample:  dec.BitsPerSample(),
		SamplesWritten: written,
		CRCErrors:      dec.NumErrors(),
		LossyBlocks:    dec.LossyBlocks(),
	}
	yamlBytes, err := yaml.Marshal(sum)
	if err != nil {
		return errors.WithStack(err)
	}
	sidecarPath := wavPath + ".meta.yaml"
	if err := os.WriteFile(sidecarPath, yamlBytes, 0o644); err != nil {
		return errors.WithStack(err)
	}

	logger.Info("decoded", "input", wvPath, "output", wavPath, "samples", written, "crc_errors", sum.CRCErrors)
	return nil
}
