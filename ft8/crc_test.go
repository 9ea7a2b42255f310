package ft8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func randomPayload(t *rapid.T) []uint8 {
	payload := make([]uint8, PayloadBits)
	nonzero := false
	for i := range payload {
		payload[i] = uint8(rapid.IntRange(0, 1).Draw(t, "bit"))
		if payload[i] != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		payload[0] = 1
	}
	return payload
}

func TestCRCRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := randomPayload(t)

		bits91 := AppendCRC(payload)
		require.Len(t, bits91, LdpcK)

		got, ok := CheckCRC(bits91)
		require.True(t, ok, "appended CRC must verify")
		assert.Equal(t, payload, got)
	})
}

func TestCRCSuffixIsChecksumOfPrefix(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := randomPayload(t)
		bits91 := AppendCRC(payload)

		var suffix uint16
		for i := PayloadBits; i < LdpcK; i++ {
			suffix = suffix<<1 | uint16(bits91[i])
		}
		assert.Equal(t, CRC14(payload), suffix)
	})
}

func TestCRCDetectsBitFlip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := randomPayload(t)
		bits91 := AppendCRC(payload)

		flip := rapid.IntRange(0, LdpcK-1).Draw(t, "flip")
		bits91[flip] ^= 1

		_, ok := CheckCRC(bits91)
		assert.False(t, ok, "flipping bit %d must break the checksum", flip)
	})
}

func TestCRCRejectsAllZeroPayload(t *testing.T) {
	bits91 := make([]uint8, LdpcK)
	_, ok := CheckCRC(bits91)
	assert.False(t, ok)
}
