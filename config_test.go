package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 12000, cfg.Audio.SampleRate)
	assert.Equal(t, 200.0, cfg.Decoder.FreqMin)
	assert.Equal(t, 3100.0, cfg.Decoder.FreqMax)
	assert.Equal(t, 45, cfg.Decoder.MaxNCheck0)
	assert.Equal(t, 12, cfg.Decoder.LDPCIterations)
	assert.Equal(t, 35, cfg.Decoder.MaxDecodesPerCycle)
	assert.Equal(t, "ft8_tx_msg.txt", cfg.TX.TriggerFile)
}

func TestLoadConfigOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
audio:
  input_keywords: [usb, codec]
decoder:
  freq_min: 300
  ldpc_iterations: 30
prometheus:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"usb", "codec"}, cfg.Audio.InputKeywords)
	assert.Equal(t, 300.0, cfg.Decoder.FreqMin)
	assert.Equal(t, 30, cfg.Decoder.LDPCIterations)
	assert.True(t, cfg.Prometheus.Enabled)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 3100.0, cfg.Decoder.FreqMax)
	assert.Equal(t, "127.0.0.1:9348", cfg.Prometheus.Listen)
}

func TestValidateRejectsBadRanges(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Audio.SampleRate = 48000 },
		func(c *Config) { c.Decoder.FreqMin = 3000; c.Decoder.FreqMax = 200 },
		func(c *Config) { c.Decoder.FreqMax = 9000 },
		func(c *Config) { c.Decoder.LDPCIterations = -1 },
		func(c *Config) { c.TX.Amplitude = 2 },
	}
	for i, mutate := range cases {
		cfg := defaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}
