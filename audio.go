package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"

	"github.com/cwsl/ft8rx/ft8"
)

/*
 * Sound-device capture and playback. The capture callback runs on the
 * portaudio thread and only ever pushes samples into the spectrogram ring;
 * it never blocks.
 */

// FindDevice returns the first device whose name contains every keyword
// (case-insensitive). Input selects capture vs playback devices.
func FindDevice(keywords []string, input bool) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating audio devices: %w", err)
	}
	for _, dev := range devices {
		if input && dev.MaxInputChannels < 1 {
			continue
		}
		if !input && dev.MaxOutputChannels < 1 {
			continue
		}
		name := strings.ToLower(dev.Name)
		match := true
		for _, kw := range keywords {
			if !strings.Contains(name, strings.ToLower(kw)) {
				match = false
				break
			}
		}
		if match {
			log.Infof("[Audio] matched device %q", dev.Name)
			return dev, nil
		}
	}
	return nil, fmt.Errorf("no audio device matches %v", keywords)
}

// Capture owns a live input stream feeding the spectrogram.
type Capture struct {
	stream *portaudio.Stream
}

// StartCapture opens the input device and begins pushing one hop of PCM per
// callback into the ring.
func StartCapture(keywords []string, spectrum *ft8.Spectrum) (*Capture, error) {
	var dev *portaudio.DeviceInfo
	var err error
	if len(keywords) > 0 {
		dev, err = FindDevice(keywords, true)
	} else {
		dev, err = portaudio.DefaultInputDevice()
	}
	if err != nil {
		return nil, err
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(spectrum.SampleRate)
	params.FramesPerBuffer = spectrum.SamplesPerHop

	stream, err := portaudio.OpenStream(params, func(in []int16) {
		spectrum.PushSamples(in)
	})
	if err != nil {
		return nil, fmt.Errorf("opening capture stream on %q: %w", dev.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("starting capture stream: %w", err)
	}
	log.Infof("[Audio] capturing from %q at %d Hz", dev.Name, spectrum.SampleRate)
	return &Capture{stream: stream}, nil
}

// Stop closes the stream.
func (c *Capture) Stop() {
	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
}

// PlayPCM writes int16 samples to an output device and blocks until done.
func PlayPCM(samples []int16, keywords []string, sampleRate int) error {
	var dev *portaudio.DeviceInfo
	var err error
	if len(keywords) > 0 {
		dev, err = FindDevice(keywords, false)
	} else {
		dev, err = portaudio.DefaultOutputDevice()
	}
	if err != nil {
		return err
	}

	const frames = 1024
	buf := make([]int16, frames)
	params := portaudio.LowLatencyParameters(nil, dev)
	params.Output.Channels = 1
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = frames

	stream, err := portaudio.OpenStream(params, &buf)
	if err != nil {
		return fmt.Errorf("opening playback stream on %q: %w", dev.Name, err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting playback stream: %w", err)
	}
	defer stream.Stop()

	for len(samples) > 0 {
		n := copy(buf, samples)
		for i := n; i < frames; i++ {
			buf[i] = 0
		}
		samples = samples[n:]
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing playback samples: %w", err)
		}
	}
	return nil
}
