package main

import (
	"flag"
	"log"
	"math"
	"os"

	"github.com/fabianhtml/AudioInk/internal/audio"
)

// Quick helper for generating WAV fixtures to exercise the pipeline by hand:
//
//	go run gen_test_audio.go -seconds 150 -out long.wav
//	go run gen_test_audio.go -seconds 5 -channels 2 -rate 48000 -sweep -out stereo.wav
func main() {
	out := flag.String("out", "test_audio.wav", "output WAV path")
	seconds := flag.Float64("seconds", 10, "duration in seconds")
	freq := flag.Float64("freq", 440, "sine frequency in Hz")
	rate := flag.Int("rate", 44100, "sample rate")
	channels := flag.Int("channels", 1, "channel count")
	sweep := flag.Bool("sweep", false, "sweep the frequency up to 4x over the duration")
	flag.Parse()

	n := int(*seconds * float64(*rate))
	samples := make([]int16, n**channels)
	phase := 0.0
	for i := 0; i < n; i++ {
		f := *freq
		if *sweep {
			f = *freq * (1 + 3*float64(i)/float64(n))
		}
		phase += 2 * math.Pi * f / float64(*rate)
		v := int16(0.4 * 32767 * math.Sin(phase))
		for c := 0; c < *channels; c++ {
			samples[i**channels+c] = v
		}
	}

	data, err := audio.EncodeWAV(samples, *rate, *channels)
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		log.Fatalf("write: %v", err)
	}
	log.Printf("wrote %s: %.1fs, %d Hz, %d channel(s), %d bytes", *out, *seconds, *rate, *channels, len(data))
}
