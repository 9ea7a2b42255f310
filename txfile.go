package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cwsl/ft8rx/ft8"
)

/*
 * TX trigger file: checked at each cycle rollover. Line 1 is the message,
 * optional line 2 a base frequency in Hz. The file is consumed (deleted)
 * whether or not the transmission succeeds, so a bad message cannot wedge
 * every following cycle.
 */

// TXController arms a single-cycle transmission from the trigger file.
type TXController struct {
	cfg        TXConfig
	sampleRate int
	outputKeys []string
}

// NewTXController returns a controller; it stays idle until the trigger
// file appears.
func NewTXController(cfg TXConfig, sampleRate int, outputKeywords []string) *TXController {
	return &TXController{cfg: cfg, sampleRate: sampleRate, outputKeys: outputKeywords}
}

// CheckAtRollover runs on the cycle manager's rollover hook.
func (t *TXController) CheckAtRollover() {
	data, err := os.ReadFile(t.cfg.TriggerFile)
	if err != nil {
		return // No trigger file, the usual case.
	}
	if err := os.Remove(t.cfg.TriggerFile); err != nil {
		log.Warnf("[TX] could not remove trigger file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	text := strings.TrimSpace(lines[0])
	baseHz := t.cfg.BaseHz
	if len(lines) > 1 {
		if hz, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64); err == nil && hz > 0 {
			baseHz = hz
		}
	}

	msg, err := ft8.ParseMessage(text)
	if err != nil {
		log.Errorf("[TX] bad message %q: %v", text, err)
		return
	}
	tones, err := ft8.EncodeToTones(msg)
	if err != nil {
		log.Errorf("[TX] cannot encode %q: %v", text, err)
		return
	}

	log.Infof("[TX] transmitting %q at %g Hz", msg.Text(), baseHz)
	pcm := ft8.Synthesize(tones, t.sampleRate, baseHz, t.cfg.Amplitude)
	go func() {
		if err := PlayPCM(pcm, t.outputKeys, t.sampleRate); err != nil {
			log.Errorf("[TX] playback failed: %v", err)
			return
		}
		log.Info("[TX] done")
	}()
}
