package document

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/dxform/errs"
	"github.com/arloliu/dxform/format"
)

// =============================================================================
// Object Tests
// =============================================================================

func TestObject_SetKeepsPosition(t *testing.T) {
	obj := NewObject(0)
	obj.Set("a", Number(1))
	obj.Set("b", Number(2))
	obj.Set("a", Number(3))

	require.Equal(t, 2, obj.Len())
	require.Equal(t, []string{"a", "b"}, obj.Keys())

	v, ok := obj.Get("a")
	require.True(t, ok)
	require.Equal(t, Number(3), v)
	require.False(t, obj.Has("c"))
}

func TestTable_AddRowArity(t *testing.T) {
	tbl := NewTable("id", "name")

	require.NoError(t, tbl.AddRow(Number(1), Str("alpha")))

	err := tbl.AddRow(Number(2))
	require.ErrorIs(t, err, errs.ErrRowLength)
	require.Len(t, tbl.Rows, 1)
}

func TestValueKinds(t *testing.T) {
	cases := map[format.ValueKind]Value{
		format.KindNull:   Null{},
		format.KindBool:   Bool(true),
		format.KindNumber: Number(1),
		format.KindStr:    Str("x"),
		format.KindArray:  NewArray(),
		format.KindObject: NewObject(0),
		format.KindTable:  NewTable(),
	}

	for kind, v := range cases {
		require.Equal(t, kind, v.Kind(), kind.String())
	}
}

// =============================================================================
// Document Tests
// =============================================================================

func TestDocument_SectionsUnique(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddSection("users", NewTable("id")))

	err := doc.AddSection("users", NewTable("id"))
	require.ErrorIs(t, err, errs.ErrDuplicateKey)

	s, ok := doc.Section("users")
	require.True(t, ok)
	require.Equal(t, "users", s.Name)
}

func TestValidKey(t *testing.T) {
	valid := []string{"a", "a.b", "server_1.port", "x-y.z", "0", "_internal"}
	invalid := []string{"", ".", "a.", ".a", "a..b", "a b", "-a", "a.-b", "a:b", "'a"}

	for _, k := range valid {
		require.True(t, ValidKey(k), k)
	}

	for _, k := range invalid {
		require.False(t, ValidKey(k), k)
	}
}

func TestDocument_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		doc := sampleDocument(t)
		require.NoError(t, doc.Validate())
	})

	t.Run("bad context key", func(t *testing.T) {
		doc := New()
		doc.Set("bad key", Null{})
		require.ErrorIs(t, doc.Validate(), errs.ErrInvalidKey)
	})

	t.Run("bad field name", func(t *testing.T) {
		obj := NewObject(1)
		obj.Set("a.b", Null{})
		doc := New()
		doc.Set("obj", obj)
		require.ErrorIs(t, doc.Validate(), errs.ErrInvalidKey)
	})

	t.Run("ragged table", func(t *testing.T) {
		doc := New()
		require.NoError(t, doc.AddSection("t", &Table{Columns: []string{"a"}, Rows: [][]Value{{Null{}, Null{}}}}))
		require.ErrorIs(t, doc.Validate(), errs.ErrRowLength)
	})

	t.Run("nil object", func(t *testing.T) {
		var obj *Object
		doc := New()
		doc.Set("obj", obj)
		require.ErrorIs(t, doc.Validate(), errs.ErrUnknownValue)
	})
}

// =============================================================================
// Equality Tests
// =============================================================================

func TestEqual_ContextOrderInsensitive(t *testing.T) {
	a := New()
	a.Set("x", Number(1))
	a.Set("y", Str("two"))

	b := New()
	b.Set("y", Str("two"))
	b.Set("x", Number(1))

	require.True(t, Equal(a, b))

	b.Set("x", Number(2))
	require.False(t, Equal(a, b))
}

func TestEqual_StreamTagIgnored(t *testing.T) {
	require.True(t, ValuesEqual(NewArray(Str("a")), NewStream(Str("a"))))
	require.False(t, ValuesEqual(NewArray(Str("a"), Str("b")), NewArray(Str("b"), Str("a"))))
}

func TestEqual_Variants(t *testing.T) {
	require.True(t, ValuesEqual(Null{}, Null{}))
	require.False(t, ValuesEqual(Null{}, Str("")))
	require.False(t, ValuesEqual(Bool(false), Number(0)))
	require.True(t, ValuesEqual(Number(math.NaN()), Number(math.NaN())))
	require.False(t, ValuesEqual(Number(math.NaN()), Number(0)))

	t1 := NewTable("a", "b")
	require.NoError(t, t1.AddRow(Number(1), Str("x")))
	t2 := NewTable("a", "b")
	require.NoError(t, t2.AddRow(Number(1), Str("x")))
	require.True(t, ValuesEqual(t1, t2))

	t3 := NewTable("b", "a")
	require.NoError(t, t3.AddRow(Number(1), Str("x")))
	require.False(t, ValuesEqual(t1, t3))
}

func TestEqual_Sections(t *testing.T) {
	a := sampleDocument(t)
	b := sampleDocument(t)
	require.True(t, Equal(a, b))

	require.NoError(t, b.AddSection("extra", NewTable()))
	require.False(t, Equal(a, b))
	require.False(t, Equal(a, nil))
	require.True(t, Equal(nil, nil))
}

func TestEqual_SectionOrder(t *testing.T) {
	users := NewTable("id")
	require.NoError(t, users.AddRow(Number(1)))
	hosts := NewTable("name")
	require.NoError(t, hosts.AddRow(Str("a")))

	a := New()
	require.NoError(t, a.AddSection("users", users))
	require.NoError(t, a.AddSection("hosts", hosts))

	b := New()
	require.NoError(t, b.AddSection("hosts", hosts))
	require.NoError(t, b.AddSection("users", users))
	require.False(t, Equal(a, b), "sections compare in order")

	c := New()
	require.NoError(t, c.AddSection("users", users))
	require.NoError(t, c.AddSection("hosts", hosts))
	require.True(t, Equal(a, c))
}

func sampleDocument(t *testing.T) *Document {
	t.Helper()

	doc := New()
	doc.Set("name", Str("Test"))
	doc.Set("version", Number(1))
	doc.Set("active", Bool(true))

	cfg := NewObject(3)
	cfg.Set("host", Str("localhost"))
	cfg.Set("port", Number(8080))
	doc.Set("config", cfg)
	doc.Set("tags", NewStream(Str("alpha"), Str("beta")))

	users := NewTable("id", "name")
	require.NoError(t, users.AddRow(Number(1), Str("ann")))
	require.NoError(t, users.AddRow(Number(2), Str("bob")))
	require.NoError(t, doc.AddSection("users", users))

	return doc
}
