package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngines(t *testing.T) {
	require := require.New(t)

	little := GetLittleEndianEngine()
	big := GetBigEndianEngine()

	require.Equal(binary.LittleEndian, little)
	require.Equal(binary.BigEndian, big)
	require.False(IsBigEndian(little))
	require.True(IsBigEndian(big))
}

func TestFlagsRoundTrip(t *testing.T) {
	for _, engine := range []EndianEngine{GetLittleEndianEngine(), GetBigEndianEngine()} {
		require.Equal(t, engine, FromFlags(Flags(engine)))
	}

	require.Equal(t, uint8(0), Flags(GetLittleEndianEngine()))
	require.Equal(t, FlagBigEndian, Flags(GetBigEndianEngine()))

	// Unknown bits do not change the byte order.
	require.Equal(t, GetLittleEndianEngine(), FromFlags(0xfe))
	require.Equal(t, GetBigEndianEngine(), FromFlags(0xff))
}

func TestAppendAndRead(t *testing.T) {
	tests := []struct {
		name   string
		engine EndianEngine
		want   []byte
	}{
		{"little", GetLittleEndianEngine(), []byte{0x04, 0x03, 0x02, 0x01}},
		{"big", GetBigEndianEngine(), []byte{0x01, 0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := tt.engine.AppendUint32(nil, 0x01020304)
			require.Equal(t, tt.want, buf)
			require.Equal(t, uint32(0x01020304), tt.engine.Uint32(buf))
		})
	}
}
