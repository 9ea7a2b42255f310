package ft8

import (
	"fmt"
	"strings"
)

/*
 * 77-bit payload pack/unpack for the standard QSO form (i3 = 1/2).
 *
 * Field split, LSB first: i3 (3) · grid (16) · callB (29) · callA (29).
 * Callsigns use the base-mixed six-position grammar; bit 0 of each 29-bit
 * field is the /P portable flag.
 */

const (
	numTokens        = 2_063_592           // DE / QRZ / CQ plus the extended token space
	max22            = 4_194_304           // 22-bit hashed-callsign range
	tokensPlusHashes = numTokens + max22   // First literal six-position callsign
	maxGrid4         = 18 * 10 * 18 * 10   // 32400, first non-grid report value
)

const (
	alphaFull    = " 0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ" // position 1, radix 37
	alphaAlnum   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"  // position 2, radix 36
	alphaDigits  = "0123456789"                            // position 3, radix 10
	alphaLetters = " ABCDEFGHIJKLMNOPQRSTUVWXYZ"           // positions 4-6, radix 27
)

var callTokens = [3]string{"DE", "QRZ", "CQ"}

var gridTokens = [5]string{"", "", "RRR", "RR73", "73"}

// Message is the decoded three-field tuple of a standard FT8 message.
type Message struct {
	CallA string
	CallB string
	Extra string // grid locator, report or RRR/RR73/73 token
}

// Text joins the non-empty fields with spaces.
func (m Message) Text() string {
	parts := make([]string, 0, 3)
	for _, f := range []string{m.CallA, m.CallB, m.Extra} {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// Fields returns the tuple as a slice, empty fields included.
func (m Message) Fields() []string {
	return []string{m.CallA, m.CallB, m.Extra}
}

// Unpack decodes a 77-bit payload (one bit per byte, MSB first) into the
// three-field message. Payloads outside the standard QSO form are rejected.
func Unpack(payload []uint8) (Message, bool) {
	i3 := bitsToUint(payload[74:77])
	grid := bitsToUint(payload[58:74])
	callB := bitsToUint(payload[29:58])
	callA := bitsToUint(payload[0:29])

	if i3 != 1 && i3 != 2 {
		return Message{}, false
	}
	return Message{
		CallA: DecodeCall(uint32(callA)),
		CallB: DecodeCall(uint32(callB)),
		Extra: DecodeGrid(uint16(grid)),
	}, true
}

// Pack encodes a three-field message into a 77-bit payload. The inverse of
// Unpack for everything the Type-1 grammar can express.
func Pack(msg Message) ([]uint8, error) {
	callA, err := EncodeCall(msg.CallA)
	if err != nil {
		return nil, fmt.Errorf("callsign %q: %w", msg.CallA, err)
	}
	callB, err := EncodeCall(msg.CallB)
	if err != nil {
		return nil, fmt.Errorf("callsign %q: %w", msg.CallB, err)
	}
	grid, err := EncodeGrid(msg.Extra)
	if err != nil {
		return nil, fmt.Errorf("grid %q: %w", msg.Extra, err)
	}

	payload := make([]uint8, PayloadBits)
	uintToBits(uint64(callA), payload[0:29])
	uintToBits(uint64(callB), payload[29:58])
	uintToBits(uint64(grid), payload[58:74])
	uintToBits(1, payload[74:77]) // i3 = 1, standard QSO
	return payload, nil
}

// ParseMessage splits "CALLA CALLB EXTRA" text into a Message. Two fields
// are accepted (empty extra).
func ParseMessage(text string) (Message, error) {
	parts := strings.Fields(strings.ToUpper(strings.TrimSpace(text)))
	switch len(parts) {
	case 2:
		return Message{CallA: parts[0], CallB: parts[1]}, nil
	case 3:
		return Message{CallA: parts[0], CallB: parts[1], Extra: parts[2]}, nil
	default:
		return Message{}, fmt.Errorf("expected 2 or 3 fields, got %d", len(parts))
	}
}

// DecodeCall interprets a 29-bit callsign field: bit 0 is the portable flag,
// the remaining 28 bits select a token, a hashed-callsign placeholder or a
// literal callsign.
func DecodeCall(n29 uint32) string {
	portable := n29&1 != 0
	call := decodeCall28(n29 >> 1)
	if portable && call != "" {
		call += "/P"
	}
	return call
}

// decodeCall28 decodes the 28-bit callsign value. Values in the extended
// token and hash ranges collapse to the <...> placeholder: the receiver keeps
// no hash table, so they cannot be resolved to text.
func decodeCall28(n28 uint32) string {
	if n28 < 3 {
		return callTokens[n28]
	}
	if n28 <= tokensPlusHashes {
		return "<...>"
	}
	n := n28 - tokensPlusHashes

	var c [6]byte
	c[0] = alphaFull[n/(36*10*27*27*27)]
	n %= 36 * 10 * 27 * 27 * 27
	c[1] = alphaAlnum[n/(10*27*27*27)]
	n %= 10 * 27 * 27 * 27
	c[2] = alphaDigits[n/(27*27*27)]
	n %= 27 * 27 * 27
	c[3] = alphaLetters[n/(27*27)]
	n %= 27 * 27
	c[4] = alphaLetters[n/27]
	c[5] = alphaLetters[n%27]

	return strings.TrimSpace(string(c[:]))
}

// EncodeCall packs a callsign, token or placeholder into a 29-bit field.
func EncodeCall(call string) (uint32, error) {
	call = strings.ToUpper(strings.TrimSpace(call))
	portable := uint32(0)
	if strings.HasSuffix(call, "/P") {
		portable = 1
		call = strings.TrimSuffix(call, "/P")
	}
	for i, tok := range callTokens {
		if call == tok {
			return uint32(i)<<1 | portable, nil
		}
	}
	if call == "<...>" {
		return uint32(tokensPlusHashes)<<1 | portable, nil
	}

	n28, err := encodeCall28(call)
	if err != nil {
		return 0, err
	}
	return n28<<1 | portable, nil
}

// encodeCall28 packs a literal callsign: one or two prefix characters, a
// digit, up to three suffix letters, aligned so the digit sits in position 3.
func encodeCall28(call string) (uint32, error) {
	if len(call) >= 3 && isDigit(call[2]) {
		// Aligned already.
	} else if len(call) >= 2 && isDigit(call[1]) {
		call = " " + call
	} else {
		return 0, fmt.Errorf("not a standard callsign")
	}
	if len(call) > 6 {
		return 0, fmt.Errorf("not a standard callsign")
	}
	for len(call) < 6 {
		call += " "
	}

	i1 := strings.IndexByte(alphaFull, call[0])
	i2 := strings.IndexByte(alphaAlnum, call[1])
	i3 := strings.IndexByte(alphaDigits, call[2])
	i4 := strings.IndexByte(alphaLetters, call[3])
	i5 := strings.IndexByte(alphaLetters, call[4])
	i6 := strings.IndexByte(alphaLetters, call[5])
	for _, idx := range []int{i1, i2, i3, i4, i5, i6} {
		if idx < 0 {
			return 0, fmt.Errorf("not a standard callsign")
		}
	}

	n := uint32(i1)
	n = n*36 + uint32(i2)
	n = n*10 + uint32(i3)
	n = n*27 + uint32(i4)
	n = n*27 + uint32(i5)
	n = n*27 + uint32(i6)
	return n + tokensPlusHashes, nil
}

// DecodeGrid interprets the 16-bit grid/report field: a Maidenhead locator,
// an RRR/RR73/73 token, or a signal report with optional R prefix (bit 15).
func DecodeGrid(g16 uint16) string {
	g15 := g16 & 0x7FFF
	if g15 < maxGrid4 {
		a := g15 / 1800
		b := g15 % 1800 / 100
		c := g15 % 100 / 10
		d := g15 % 10
		return fmt.Sprintf("%c%c%d%d", 'A'+a, 'A'+b, c, d)
	}
	r := int(g15) - maxGrid4
	if r <= 4 {
		return gridTokens[r]
	}
	snr := r - 35
	prefix := ""
	if g16>>15 != 0 {
		prefix = "R"
	}
	return fmt.Sprintf("%s%+03d", prefix, snr)
}

// EncodeGrid packs a locator, token, report or empty extra field.
func EncodeGrid(extra string) (uint16, error) {
	extra = strings.ToUpper(strings.TrimSpace(extra))

	if len(extra) == 4 &&
		extra[0] >= 'A' && extra[0] <= 'R' &&
		extra[1] >= 'A' && extra[1] <= 'R' &&
		isDigit(extra[2]) && isDigit(extra[3]) {
		a := uint16(extra[0] - 'A')
		b := uint16(extra[1] - 'A')
		c := uint16(extra[2] - '0')
		d := uint16(extra[3] - '0')
		return a*1800 + b*100 + c*10 + d, nil
	}

	switch extra {
	case "":
		return maxGrid4, nil
	case "RRR":
		return maxGrid4 + 2, nil
	case "RR73":
		return maxGrid4 + 3, nil
	case "73":
		return maxGrid4 + 4, nil
	}

	report := extra
	var rollcall uint16
	if strings.HasPrefix(report, "R") && len(report) > 1 && (report[1] == '+' || report[1] == '-') {
		rollcall = 1 << 15
		report = report[1:]
	}
	var snr int
	if _, err := fmt.Sscanf(report, "%d", &snr); err != nil || snr < -30 || snr > 30 {
		return 0, fmt.Errorf("not a grid, token or report")
	}
	return uint16(maxGrid4+snr+35) | rollcall, nil
}

func bitsToUint(bits []uint8) uint64 {
	var v uint64
	for _, b := range bits {
		v = v<<1 | uint64(b)
	}
	return v
}

func uintToBits(v uint64, bits []uint8) {
	for i := len(bits) - 1; i >= 0; i-- {
		bits[i] = uint8(v & 1)
		v >>= 1
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
