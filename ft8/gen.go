package ft8

import (
	"math"
)

/*
 * Single-shot TX synthesis: message text -> 79 tones -> 8-FSK waveform.
 */

// EncodeToTones packs a message into its 79-symbol tone sequence:
// Costas groups at 0, 36 and 72 with 58 Gray-coded payload symbols between.
func EncodeToTones(msg Message) ([]uint8, error) {
	payload, err := Pack(msg)
	if err != nil {
		return nil, err
	}
	codeword := ldpcExtend(AppendCRC(payload))

	tones := make([]uint8, NN)
	for i := 0; i < CostasLen; i++ {
		tones[i] = costasPattern[i]
		tones[36+i] = costasPattern[i]
		tones[NN-CostasLen+i] = costasPattern[i]
	}
	for j, sym := range payloadSymbols {
		i := 3 * j
		v := codeword[i]<<2 | codeword[i+1]<<1 | codeword[i+2]
		tones[sym] = grayMap[v]
	}
	return tones, nil
}

// Synthesize renders a tone sequence as int16 PCM with continuous phase,
// 0.160 s per symbol at 6.25 Hz tone spacing above baseHz.
func Synthesize(tones []uint8, sampleRate int, baseHz float64, amplitude float64) []int16 {
	symbolLen := int(float64(sampleRate) / SymbolsPerSec)
	out := make([]int16, 0, len(tones)*symbolLen)

	phase := 0.0
	for _, tone := range tones {
		f := baseHz + float64(tone)*ToneSpacingHz
		phaseInc := 2 * math.Pi * f / float64(sampleRate)
		for i := 0; i < symbolLen; i++ {
			s := amplitude * math.Sin(phase+phaseInc*float64(i))
			out = append(out, int16(s*32767))
		}
		phase = math.Mod(phase+phaseInc*float64(symbolLen), 2*math.Pi)
	}
	return out
}
