package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/dxform/document"
	"github.com/arloliu/dxform/mapping"
)

func testRegistry(t *testing.T) *mapping.Registry {
	t.Helper()

	reg, err := mapping.New()
	require.NoError(t, err)

	return reg
}

func TestCompressKey(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		key  string
		want string
	}{
		{"name", "nm"},
		{"server.host", "server.host"},
		{"project.version", "proj.vr"},
		{"nm", "'nm"}, // literal key that collides with an abbreviation
		{"db.nm.port", "db.'nm.port"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := CompressKey(reg, tt.key)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.key, ExpandKey(reg, got))
		})
	}
}

func TestCompressKey_RoundTripsDefaults(t *testing.T) {
	reg := testRegistry(t)

	for _, e := range reg.Entries() {
		for _, key := range []string{e.Short, e.Long, "a." + e.Long, e.Short + ".b"} {
			require.Equal(t, key, ExpandKey(reg, CompressKey(reg, key)), key)
		}
	}
}

func TestTruncateKey(t *testing.T) {
	require.Equal(t, "abc.de.fgh", TruncateKey("abcdef.de.fghij", 3))
	require.Equal(t, "abcdef", TruncateKey("abcdef", 0))
}

func TestAbbreviateKey(t *testing.T) {
	reg := testRegistry(t)

	require.Equal(t, CompressKey(reg, "project.version"), AbbreviateKey(reg, "project.version", 0))
	require.Equal(t, "proj.serve.vr", AbbreviateKey(reg, "project.server.version", 5))
	require.Equal(t, "d.'nm", AbbreviateKey(reg, "db.nm", 1), "literal segments are not truncated")
}

func TestShouldInline(t *testing.T) {
	p := DefaultInlinePolicy()

	require.True(t, ShouldInline(3, 40, p))
	require.False(t, ShouldInline(8, 40, p))
	require.False(t, ShouldInline(3, 96, p))
	require.True(t, ShouldInline(0, 0, p))
}

func TestInheritedSuffix(t *testing.T) {
	suffix, ok := InheritedSuffix("context.name", "context.version")
	require.True(t, ok)
	require.Equal(t, "version", suffix)

	_, ok = InheritedSuffix("name", "version")
	require.False(t, ok)

	_, ok = InheritedSuffix("a.b", "a.b.c")
	require.False(t, ok)

	suffix, ok = InheritedSuffix("a.b.c", "a.b.d")
	require.True(t, ok)
	require.Equal(t, "d", suffix)

	require.Equal(t, "", Prefix("single"))
}

func TestUseDittoAndStyle(t *testing.T) {
	require.True(t, UseDitto(document.Str("x"), document.Str("x")))
	require.False(t, UseDitto(document.Str("x"), document.Null{}))
	require.True(t, UseDitto(document.NewStream(document.Number(1)), document.NewArray(document.Number(1))))

	require.Equal(t, ArrayStream, StyleOf(document.NewStream()))
	require.Equal(t, ArrayBracket, StyleOf(document.NewArray()))
}
