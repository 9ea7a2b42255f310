package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"

	"github.com/cwsl/ft8rx/ft8"
)

func main() {
	var (
		configPath  = pflag.String("config", "", "yaml configuration file")
		inputKeys   = pflag.StringSliceP("input", "i", nil, "keywords matching the input sound device")
		outputKeys  = pflag.StringSliceP("output", "o", nil, "keywords matching the output sound device")
		fmin        = pflag.Float64("fmin", 0, "passband low edge in Hz")
		fmax        = pflag.Float64("fmax", 0, "passband high edge in Hz")
		wavFile     = pflag.StringP("wav", "w", "", "replay a WAV file instead of capturing")
		verbose     = pflag.BoolP("verbose", "v", false, "debug logging and full decode records")
		txMessage   = pflag.StringP("transmit", "t", "", "transmit a message on the next cycle and exit")
		wavOut      = pflag.String("wav-out", "ft8_tx.wav", "WAV output for --transmit without an output device")
		metricsAddr = pflag.String("metrics-listen", "", "expose prometheus metrics on host:port")
	)
	pflag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if len(*inputKeys) > 0 {
		cfg.Audio.InputKeywords = *inputKeys
	}
	if len(*outputKeys) > 0 {
		cfg.Audio.OutputKeywords = *outputKeys
	}
	if *fmin != 0 {
		cfg.Decoder.FreqMin = *fmin
	}
	if *fmax != 0 {
		cfg.Decoder.FreqMax = *fmax
	}
	if *wavFile != "" {
		cfg.Audio.WavFile = *wavFile
	}
	if *metricsAddr != "" {
		cfg.Prometheus.Enabled = true
		cfg.Prometheus.Listen = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	log.SetLevel(parseLevel(cfg.Logging.Level, *verbose))
	log.SetTimeFormat("15:04:05")

	if err := portaudio.Initialize(); err != nil {
		log.Fatalf("portaudio: %v", err)
	}
	defer portaudio.Terminate()

	if *txMessage != "" {
		if err := transmitOnce(cfg, *txMessage, *wavOut); err != nil {
			log.Fatalf("transmit: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *verbose); err != nil {
		log.Fatalf("%v", err)
	}
	log.Info("stopped")
}

// run builds the pipeline and blocks until cancellation or replay end.
func run(ctx context.Context, cfg *Config, verbose bool) error {
	spectrum := ft8.NewSpectrum(cfg.Audio.SampleRate, cfg.Decoder.FreqMax,
		cfg.Decoder.HopsPerSymbol, cfg.Decoder.FbinsPerTone)

	var metrics *Metrics
	if cfg.Prometheus.Enabled {
		metrics = NewMetrics()
		metrics.Serve(cfg.Prometheus.Listen)
	}

	cycleCfg := ft8.DefaultCycleConfig()
	cycleCfg.FreqMin = cfg.Decoder.FreqMin
	cycleCfg.FreqMax = cfg.Decoder.FreqMax
	cycleCfg.MaxNCheck0 = cfg.Decoder.MaxNCheck0
	cycleCfg.LDPCIterations = cfg.Decoder.LDPCIterations
	cycleCfg.MaxDecodesPerCycle = cfg.Decoder.MaxDecodesPerCycle

	var clock *ft8.CycleClock
	var replay *Replay
	if cfg.Audio.WavFile != "" {
		var err error
		replay, err = NewReplay(cfg.Audio.WavFile, cfg.Audio.SampleRate)
		if err != nil {
			return err
		}
		clock = ft8.NewOffsetClock()
	} else {
		clock = ft8.NewClock()
	}

	manager := ft8.NewCycleManager(spectrum, clock, cycleCfg)
	tx := NewTXController(cfg.TX, cfg.Audio.SampleRate, cfg.Audio.OutputKeywords)

	manager.OnDecode = func(ev ft8.DecodeEvent) {
		if verbose {
			fmt.Printf("%+v\n", ev)
		} else {
			fmt.Printf("%s %3d %5.2f %4d ~ %s\n", ev.CS, ev.SNR, ev.DT, ev.Freq, ev.Msg)
		}
		if metrics != nil {
			metrics.ObserveDecode(ev)
		}
	}
	manager.OnCycle = func(s ft8.CycleSummary) {
		if metrics != nil {
			metrics.ObserveCycle(s)
		}
	}
	manager.OnSearch = func(n int) {
		if metrics != nil {
			metrics.candidatesPerScan.Set(float64(n))
			metrics.writePtr.Set(float64(spectrum.WritePtr()))
		}
	}
	manager.OnRollover = tx.CheckAtRollover

	if replay != nil {
		manager.ReplayDone = replay.Done
		replay.Start(ctx, spectrum)
	} else {
		capture, err := StartCapture(cfg.Audio.InputKeywords, spectrum)
		if err != nil {
			return err
		}
		defer capture.Stop()

		delay := ft8.CycleSeconds - clock.CycleTime()
		log.Infof("[Cycle] waiting %.1f s for cycle rollover", delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(delay * float64(time.Second))):
		}
	}

	log.Infof("[Cycle] receiving %g-%g Hz", cfg.Decoder.FreqMin, cfg.Decoder.FreqMax)
	manager.Run(ctx)
	return nil
}

// transmitOnce renders a message: played at the next cycle boundary when an
// output device is configured, written to a WAV file otherwise.
func transmitOnce(cfg *Config, text, wavOut string) error {
	msg, err := ft8.ParseMessage(text)
	if err != nil {
		return err
	}
	tones, err := ft8.EncodeToTones(msg)
	if err != nil {
		return err
	}
	pcm := ft8.Synthesize(tones, cfg.Audio.SampleRate, cfg.TX.BaseHz, cfg.TX.Amplitude)

	if len(cfg.Audio.OutputKeywords) == 0 {
		if err := WriteWAV(wavOut, pcm, cfg.Audio.SampleRate); err != nil {
			return err
		}
		log.Infof("[TX] wrote %q with message %q", wavOut, msg.Text())
		return nil
	}

	clock := ft8.NewClock()
	delay := ft8.CycleSeconds - clock.CycleTime()
	log.Infof("[TX] transmitting %q in %.1f s", msg.Text(), delay)
	time.Sleep(time.Duration(delay * float64(time.Second)))
	return PlayPCM(pcm, cfg.Audio.OutputKeywords, cfg.Audio.SampleRate)
}

func parseLevel(level string, verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
