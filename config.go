package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Audio      AudioConfig      `yaml:"audio"`
	Decoder    DecoderConfig    `yaml:"decoder"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Logging    LoggingConfig    `yaml:"logging"`
	TX         TXConfig         `yaml:"tx"`
}

// AudioConfig selects the capture source
type AudioConfig struct {
	SampleRate     int      `yaml:"sample_rate"`     // Capture rate, Hz (default 12000)
	InputKeywords  []string `yaml:"input_keywords"`  // All must match the device name
	OutputKeywords []string `yaml:"output_keywords"` // Output device for TX, optional
	WavFile        string   `yaml:"wav_file"`        // Replay source; empty = live capture
}

// DecoderConfig contains the decode-schedule knobs
type DecoderConfig struct {
	FreqMin            float64 `yaml:"freq_min"`              // Passband low edge, Hz
	FreqMax            float64 `yaml:"freq_max"`              // Passband high edge, Hz
	HopsPerSymbol      int     `yaml:"hops_per_symbol"`       // Spectrogram rows per symbol
	FbinsPerTone       int     `yaml:"fbins_per_tone"`        // FFT bins per 8-FSK tone
	MaxNCheck0         int     `yaml:"max_ncheck0"`           // LDPC abandon threshold
	LDPCIterations     int     `yaml:"ldpc_iterations"`       // LDPC iteration cap
	MaxDecodesPerCycle int     `yaml:"max_decodes_per_cycle"` // Decode budget per cycle
}

// PrometheusConfig enables the metrics listener
type PrometheusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // host:port for /metrics
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// TXConfig controls the single-cycle transmit hook
type TXConfig struct {
	TriggerFile string  `yaml:"trigger_file"` // Checked at each rollover
	BaseHz      float64 `yaml:"base_hz"`      // Default carrier when line 2 is absent
	Amplitude   float64 `yaml:"amplitude"`
}

// LoadConfig reads a yaml config file; a missing path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 12000
	}
	if c.Decoder.FreqMin == 0 {
		c.Decoder.FreqMin = 200
	}
	if c.Decoder.FreqMax == 0 {
		c.Decoder.FreqMax = 3100
	}
	if c.Decoder.HopsPerSymbol == 0 {
		c.Decoder.HopsPerSymbol = 2
	}
	if c.Decoder.FbinsPerTone == 0 {
		c.Decoder.FbinsPerTone = 2
	}
	if c.Decoder.MaxNCheck0 == 0 {
		c.Decoder.MaxNCheck0 = 45
	}
	if c.Decoder.LDPCIterations == 0 {
		c.Decoder.LDPCIterations = 12
	}
	if c.Decoder.MaxDecodesPerCycle == 0 {
		c.Decoder.MaxDecodesPerCycle = 35
	}
	if c.Prometheus.Listen == "" {
		c.Prometheus.Listen = "127.0.0.1:9348"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.TX.TriggerFile == "" {
		c.TX.TriggerFile = "ft8_tx_msg.txt"
	}
	if c.TX.BaseHz == 0 {
		c.TX.BaseHz = 1000
	}
	if c.TX.Amplitude == 0 {
		c.TX.Amplitude = 0.5
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate != 12000 {
		return fmt.Errorf("audio.sample_rate must be 12000, got %d", c.Audio.SampleRate)
	}
	if c.Decoder.FreqMin < 0 || c.Decoder.FreqMax <= c.Decoder.FreqMin {
		return fmt.Errorf("decoder frequency range [%g, %g] is invalid",
			c.Decoder.FreqMin, c.Decoder.FreqMax)
	}
	if c.Decoder.FreqMax > float64(c.Audio.SampleRate)/2 {
		return fmt.Errorf("decoder.freq_max %g exceeds Nyquist", c.Decoder.FreqMax)
	}
	if c.Decoder.HopsPerSymbol < 1 || c.Decoder.FbinsPerTone < 1 {
		return fmt.Errorf("decoder oversampling factors must be positive")
	}
	if c.Decoder.LDPCIterations < 1 {
		return fmt.Errorf("decoder.ldpc_iterations must be positive")
	}
	if c.TX.Amplitude <= 0 || c.TX.Amplitude > 1 {
		return fmt.Errorf("tx.amplitude must be in (0, 1]")
	}
	return nil
}
