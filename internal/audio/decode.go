package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

var (
	// ErrUnsupportedFormat indicates no decoder matches the container format
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNoAudio indicates a recognized container held no decodable audio
	ErrNoAudio = errors.New("no decodable audio")
)

// Damaged frames are skipped during decode; past this many consecutive
// failures the stream is treated as ended instead.
const maxFrameSkips = 64

// PCM holds decoded audio samples at the source rate and channel layout
type PCM struct {
	Samples    []float32 // Interleaved when Channels > 1
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (one sample per channel)
func (p *PCM) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Duration returns the audio duration in seconds
func (p *PCM) Duration() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// Info returns the source characteristics of the decoded audio
func (p *PCM) Info() Info {
	d := p.Duration()
	return Info{
		Duration:    d,
		DurationStr: FormatDuration(d),
		Channels:    p.Channels,
		SampleRate:  p.SampleRate,
	}
}

// Info describes source audio characteristics captured at decode time
type Info struct {
	Duration    float64 `json:"duration"`
	DurationStr string  `json:"duration_str"`
	Channels    int     `json:"channels"`
	SampleRate  int     `json:"sample_rate"`
}

// FormatDuration renders a duration in seconds as "M:SS"
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

type containerFormat int

const (
	formatUnknown containerFormat = iota
	formatWAV
	formatMP3
	formatFLAC
	formatOGG
)

// detectFormat probes the leading bytes of a file for a known container
// signature. The file extension is only a fallback hint; magic bytes win
// when the two disagree.
func detectFormat(head []byte, ext string) containerFormat {
	switch {
	case len(head) >= 12 && string(head[0:4]) == "RIFF" && string(head[8:12]) == "WAVE":
		return formatWAV
	case len(head) >= 4 && string(head[0:4]) == "fLaC":
		return formatFLAC
	case len(head) >= 4 && string(head[0:4]) == "OggS":
		return formatOGG
	case len(head) >= 3 && string(head[0:3]) == "ID3":
		return formatMP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		// Bare MPEG frame sync, an MP3 without an ID3 tag
		return formatMP3
	}

	switch ext {
	case ".wav":
		return formatWAV
	case ".mp3":
		return formatMP3
	case ".flac":
		return formatFLAC
	case ".ogg", ".oga":
		return formatOGG
	}

	return formatUnknown
}

// Decode reads an audio file from disk and decodes it to interleaved float32
// samples at the source sample rate and channel count. Decoding is tolerant
// of damaged frames: they are skipped, and a truncated stream is treated as
// end of stream rather than an error.
func Decode(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 12)
	n, _ := io.ReadFull(f, head)
	head = head[:n]

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind audio file: %w", err)
	}

	switch detectFormat(head, strings.ToLower(filepath.Ext(path))) {
	case formatWAV:
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read audio file: %w", err)
		}
		return DecodeWAV(data)
	case formatFLAC:
		return decodeFLAC(f)
	case formatOGG:
		return decodeOGG(f)
	case formatMP3:
		return decodeMP3(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// decodeFLAC decodes a FLAC stream frame by frame. Frames that fail to parse
// are skipped so a locally damaged file still yields its readable audio.
func decodeFLAC(r io.Reader) (*PCM, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid FLAC stream: %v", ErrNoAudio, err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	rate := int(info.SampleRate)
	if channels <= 0 || rate <= 0 {
		return nil, fmt.Errorf("%w: invalid FLAC stream info", ErrNoAudio)
	}

	scale := float32(int64(1) << (info.BitsPerSample - 1))

	var samples []float32
	if info.NSamples > 0 {
		samples = make([]float32, 0, int(info.NSamples)*channels)
	}

	skipped := 0
	for {
		fr, err := stream.ParseNext()
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			skipped++
			if skipped > maxFrameSkips {
				break
			}
			continue
		}

		if len(fr.Subframes) == 0 {
			continue
		}

		n := len(fr.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for _, sf := range fr.Subframes {
				if i < len(sf.Samples) {
					samples = append(samples, float32(sf.Samples[i])/scale)
				} else {
					samples = append(samples, 0)
				}
			}
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no decodable FLAC frames", ErrNoAudio)
	}

	return &PCM{Samples: samples, SampleRate: rate, Channels: channels}, nil
}

// decodeOGG decodes an Ogg Vorbis stream to interleaved float32 samples.
func decodeOGG(r io.Reader) (*PCM, error) {
	or, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid Ogg Vorbis stream: %v", ErrNoAudio, err)
	}

	channels := or.Channels()
	rate := or.SampleRate()

	buf := make([]float32, 4096*channels)
	var samples []float32
	for {
		n, err := or.Read(buf)
		if n > 0 {
			samples = append(samples, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(samples) == 0 {
				return nil, fmt.Errorf("%w: %v", ErrNoAudio, err)
			}
			// Damage past this point behaves like end of stream
			break
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty Ogg Vorbis stream", ErrNoAudio)
	}

	return &PCM{Samples: samples, SampleRate: rate, Channels: channels}, nil
}

// decodeMP3 decodes an MP3 stream. The decoder always emits 16-bit stereo
// frames, so mono sources arrive with both channels carrying the same signal.
func decodeMP3(r io.Reader) (*PCM, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid MP3 stream: %v", ErrNoAudio, err)
	}

	const channels = 2
	rate := dec.SampleRate()

	buf := make([]byte, 16384)
	var samples []float32
	for {
		n, err := dec.Read(buf)
		for i := 0; i+1 < n; i += 2 {
			v := int16(binary.LittleEndian.Uint16(buf[i : i+2]))
			samples = append(samples, float32(v)/32768.0)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(samples) == 0 {
				return nil, fmt.Errorf("%w: %v", ErrNoAudio, err)
			}
			break
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty MP3 stream", ErrNoAudio)
	}

	return &PCM{Samples: samples, SampleRate: rate, Channels: channels}, nil
}
