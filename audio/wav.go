package audio

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/wippyai/sherpa-wasm/errors"
)

// DecodeWAV reads a PCM WAV stream and returns the first channel as
// normalized samples with the file's sample rate.
func DecodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, 0, errors.New(errors.PhaseAudio, errors.KindInvalidData).
			Detail("not a PCM WAV file").
			Build()
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, errors.Wrap(errors.PhaseAudio, errors.KindInvalidData, err, "decode WAV")
	}

	channels := max(buf.Format.NumChannels, 1)
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(d.BitDepth)
	}
	if depth < 8 || depth > 32 {
		return nil, 0, errors.New(errors.PhaseAudio, errors.KindUnsupported).
			Value(depth).
			Detail("bit depth %d", depth).
			Build()
	}

	scale := float32(int64(1) << (depth - 1))
	// 8-bit WAV is unsigned
	offset := 0
	if depth == 8 {
		offset = 128
	}
	out := make([]float32, len(buf.Data)/channels)
	for i := range out {
		out[i] = float32(buf.Data[i*channels]-offset) / scale
	}
	return out, buf.Format.SampleRate, nil
}

// ReadWAV decodes a WAV file and resamples it to rate.
func ReadWAV(path string, rate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseAudio, errors.KindIO, err, path)
	}
	defer f.Close()

	samples, srcRate, err := DecodeWAV(f)
	if err != nil {
		return nil, err
	}
	return Resample(samples, srcRate, rate), nil
}

// EncodeWAV writes mono 16-bit PCM.
func EncodeWAV(w io.WriteSeeker, samples []int16, rate int) error {
	enc := wav.NewEncoder(w, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  rate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return errors.Wrap(errors.PhaseAudio, errors.KindIO, err, "encode WAV")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(errors.PhaseAudio, errors.KindIO, err, "finish WAV")
	}
	return nil
}

// WriteWAV writes samples to path as mono 16-bit PCM.
func WriteWAV(path string, samples []float32, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.PhaseAudio, errors.KindIO, err, path)
	}
	if err := EncodeWAV(f, Float32ToInt16(samples), rate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
