// Package audioconv decodes audio files into mono 16 kHz float32 PCM, the
// format the speech engines take.
package audioconv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const TargetRate = 16000

var ErrUnsupported = errors.New("unsupported audio format")

type Options struct {
	MaxSamples int // 0 = no limit
}

type decodeFunc func(r io.ReadSeeker) (pcm []float32, channels, rate int, err error)

var (
	byExt = map[string][]decodeFunc{
		".wav":  {decodeWAV},
		".mp3":  {decodeMP3},
		".ogg":  {decodeVorbis, decodeOpus},
		".oga":  {decodeVorbis, decodeOpus},
		".opus": {decodeOpus},
	}
	byMagic = map[string][]decodeFunc{
		"RIFF":    {decodeWAV},
		"OggS":    {decodeVorbis, decodeOpus},
		"ID3\x03": {decodeMP3},
		"ID3\x04": {decodeMP3},
	}
)

// DecodeFile picks a decoder by extension, falling back to the file magic.
func DecodeFile(path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoders, ok := byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		magic, _ := bufio.NewReader(f).Peek(4)
		decoders, ok = byMagic[string(magic)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
		}
	}

	return decode(f, decoders, opt)
}

// Decode sniffs the format of r from its first bytes.
func Decode(r io.ReadSeeker, opt Options) ([]float32, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	decoders, ok := byMagic[string(magic)]
	if !ok {
		return nil, ErrUnsupported
	}
	return decode(r, decoders, opt)
}

func decode(r io.ReadSeeker, decoders []decodeFunc, opt Options) ([]float32, error) {
	var errs []error
	for _, dec := range decoders {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind: %w", err)
		}

		pcm, channels, rate, err := dec(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		pcm = downmix(pcm, channels)
		pcm = resample(pcm, rate, TargetRate)
		if opt.MaxSamples > 0 && len(pcm) > opt.MaxSamples {
			pcm = pcm[:opt.MaxSamples]
		}
		return pcm, nil
	}
	return nil, fmt.Errorf("decode audio: %w", errors.Join(errs...))
}

func decodeWAV(r io.ReadSeeker) ([]float32, int, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("invalid wav")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, 0, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}

	channels, rate := 1, 44100
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}

	scale := 1.0 / float64(int64(1)<<(depth-1))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(min(max(float64(v)*scale, -1), 1))
	}
	return out, channels, rate, nil
}

func decodeMP3(r io.ReadSeeker) ([]float32, int, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open mp3: %w", err)
	}

	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, 0, 0, fmt.Errorf("read mp3: %w", err)
	}

	samples := make([]int16, raw.Len()/2)
	if err := binary.Read(&raw, binary.LittleEndian, samples); err != nil {
		return nil, 0, 0, fmt.Errorf("read mp3 samples: %w", err)
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	// go-mp3 always yields interleaved stereo
	return fromInt16(samples), 2, rate, nil
}

func decodeVorbis(r io.ReadSeeker) ([]float32, int, int, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read vorbis: %w", err)
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, 0, 0, errors.New("invalid vorbis stream")
	}
	return pcm, format.Channels, format.SampleRate, nil
}

func decodeOpus(r io.ReadSeeker) ([]float32, int, int, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open opus: %w", err)
	}
	defer dec.Destroy()

	channels := max(dec.ChannelCount(), 1)

	var (
		out []float32
		buf = make([]int16, 24000*channels)
	)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			out = append(out, fromInt16(buf[:n*channels])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, fmt.Errorf("read opus: %w", err)
		}
	}
	if len(out) == 0 {
		return nil, 0, 0, errors.New("empty opus stream")
	}

	// opus always decodes at 48 kHz
	return out, channels, 48000, nil
}
