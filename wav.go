package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwsl/ft8rx/ft8"
)

/*
 * Offline replay: a RIFF/WAV file pushed into the spectrogram ring one hop
 * at a time, sleeping between hops to preserve real-time cadence.
 */

// Replay feeds a WAV file into the ring on its own goroutine.
type Replay struct {
	samples []int16
	done    atomic.Bool
}

// NewReplay loads and validates the file up front so a bad path fails at
// startup, not mid-cycle.
func NewReplay(path string, sampleRate int) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading wav %q: %w", path, err)
	}
	if dec.NumChans != 1 {
		return nil, fmt.Errorf("wav %q: want mono, got %d channels", path, dec.NumChans)
	}
	if int(dec.SampleRate) != sampleRate {
		return nil, fmt.Errorf("wav %q: want %d Hz, got %d", path, sampleRate, dec.SampleRate)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	log.Infof("[Replay] loaded %q: %d samples (%.1f s)",
		path, len(samples), float64(len(samples))/float64(sampleRate))
	return &Replay{samples: samples}, nil
}

// Start pushes hops at real-time cadence until the file or the context is
// exhausted.
func (r *Replay) Start(ctx context.Context, spectrum *ft8.Spectrum) {
	go func() {
		defer r.done.Store(true)
		hop := spectrum.SamplesPerHop
		interval := time.Duration(spectrum.DT * float64(time.Second))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for off := 0; off < len(r.samples); off += hop {
			end := off + hop
			if end > len(r.samples) {
				end = len(r.samples)
			}
			spectrum.PushSamples(r.samples[off:end])
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
		log.Info("[Replay] end of file")
	}()
}

// Done reports end of input.
func (r *Replay) Done() bool {
	return r.done.Load()
}

// WriteWAV stores int16 PCM as a 16-bit mono RIFF file.
func WriteWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	return enc.Close()
}
