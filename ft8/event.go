package ft8

/*
 * DecodeEvent is the record handed to the on-decode callback, one per
 * successful decode. Not retained by the manager.
 */

// DecodeEvent describes one decoded transmission.
type DecodeEvent struct {
	CS         string    `json:"cs"`          // Cycle start, YYMMDD_HHMMSS UTC
	Freq       int       `json:"f"`           // Tone-0 centre, Hz
	SNR        int       `json:"snr"`         // dB, clipped to [-24, 24]
	DT         float64   `json:"dt"`          // Seconds, 2 decimals
	Msg        string    `json:"msg"`         // Space-joined message text
	MsgFields  []string  `json:"msg_tuple"`   // The three-field tuple
	NCheck0    int       `json:"ncheck0"`     // Unsatisfied checks before iterating
	DecodePath string    `json:"decode_path"` // State-transition trace
	LLRSD      float64   `json:"llr_sd"`      // Demap spread before rescaling
	TD         float64   `json:"td"`          // Wall-second of the decode within the minute
	Sync       SyncPoint `json:"sync"`
}

// CycleSummary reports the fate of a cycle's candidates at the search tick
// and on replay end.
type CycleSummary struct {
	Decoded    int
	Failed     int
	Unfinished int
	Dropped    int // Failed candidates cut by the decode budget, never decoded
}

func (c *Candidate) event(td float64) DecodeEvent {
	msg := *c.Msg
	dt := float64(int(0.5+100*c.Sync.DT)) / 100
	return DecodeEvent{
		CS:         c.CycleStart,
		Freq:       c.Freq(),
		SNR:        c.SNR(),
		DT:         dt,
		Msg:        msg.Text(),
		MsgFields:  msg.Fields(),
		NCheck0:    c.NCheck0,
		DecodePath: c.DecodePath,
		LLRSD:      c.LLRSD,
		TD:         td,
		Sync:       c.Sync,
	}
}
