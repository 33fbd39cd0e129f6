package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// WAVHeader represents the canonical 44-byte header of a PCM WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// EncodeWAV encodes interleaved PCM-16 samples into WAV format
func EncodeWAV(samples []int16, sampleRate, channels int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}

	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("sample count %d is not a multiple of channel count %d", len(samples), channels)
	}

	numChannels := uint16(channels)
	bitsPerSample := uint16(16)
	dataSize := uint32(len(samples) * 2) // 2 bytes per sample
	fileSize := 36 + dataSize            // header is 44 bytes, data starts at offset 44

	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     fileSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeWAV decodes WAV data into interleaved float32 samples. It walks the
// RIFF chunk list rather than assuming the canonical 44-byte layout, skipping
// chunks it does not understand (ffmpeg and many editors insert LIST/INFO
// chunks before the data chunk). Supported encodings are 16-bit and 24-bit
// integer PCM and 32-bit IEEE float, including their WAVE_FORMAT_EXTENSIBLE
// variants.
func DecodeWAV(data []byte) (*PCM, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: WAV data too short, need at least 12 bytes, got %d", ErrNoAudio, len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return nil, fmt.Errorf("%w: missing RIFF header", ErrUnsupportedFormat)
	}

	if string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing WAVE format", ErrUnsupportedFormat)
	}

	var (
		format        uint16
		channels      int
		sampleRate    int
		bitsPerSample int
		audioData     []byte
		haveFmt       bool
	)

	// Walk subchunks; only "fmt " and "data" matter, the rest are skipped.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body > len(data) {
			break
		}
		end := body + size
		if end > len(data) {
			// Truncated chunk, take what is there
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too short", ErrNoAudio)
			}
			fmtChunk := data[body:end]
			format = binary.LittleEndian.Uint16(fmtChunk[0:2])
			channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(fmtChunk[14:16]))
			if format == 0xFFFE && len(fmtChunk) >= 26 {
				// WAVE_FORMAT_EXTENSIBLE: real format tag leads the SubFormat GUID
				format = binary.LittleEndian.Uint16(fmtChunk[24:26])
			}
			haveFmt = true
		case "data":
			audioData = data[body:end]
		}

		// Chunk bodies are padded to even length
		pos = body + size + (size & 1)
	}

	if !haveFmt {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrNoAudio)
	}

	if audioData == nil {
		return nil, fmt.Errorf("%w: missing data chunk", ErrNoAudio)
	}

	if channels <= 0 {
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrNoAudio, channels)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", ErrNoAudio, sampleRate)
	}

	var samples []float32
	switch {
	case format == 1 && bitsPerSample == 16:
		n := len(audioData) / 2
		samples = make([]float32, n)
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(audioData[i*2 : i*2+2]))
			samples[i] = float32(v) / 32768.0
		}
	case format == 1 && bitsPerSample == 24:
		n := len(audioData) / 3
		samples = make([]float32, n)
		for i := 0; i < n; i++ {
			b := audioData[i*3 : i*3+3]
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xFFFFFF) // Sign extend
			}
			samples[i] = float32(v) / 8388608.0
		}
	case format == 3 && bitsPerSample == 32:
		n := len(audioData) / 4
		samples = make([]float32, n)
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(audioData[i*4 : i*4+4])
			samples[i] = math.Float32frombits(bits)
		}
	default:
		return nil, fmt.Errorf("%w: WAV encoding format=%d bits=%d", ErrUnsupportedFormat, format, bitsPerSample)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no audio data found", ErrNoAudio)
	}

	// Drop a trailing partial frame so every frame has all its channels
	if rem := len(samples) % channels; rem != 0 {
		samples = samples[:len(samples)-rem]
	}

	return &PCM{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}
