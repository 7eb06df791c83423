package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Limit int
	Name  string
	Calls []string
}

func withLimit(v int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if v < 0 {
			return errors.New("limit cannot be negative")
		}
		c.Limit = v
		c.Calls = append(c.Calls, "limit")

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.Name = name
		c.Calls = append(c.Calls, "name")
	})
}

func TestApply_Order(t *testing.T) {
	cfg := &testConfig{}

	err := Apply(cfg, withName("a"), withLimit(3), withName("b"))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Limit)
	require.Equal(t, "b", cfg.Name)
	require.Equal(t, []string{"name", "limit", "name"}, cfg.Calls)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	cfg := &testConfig{}

	err := Apply(cfg, withLimit(-1), withName("never"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "limit cannot be negative")
	require.Empty(t, cfg.Name)
}

func TestApply_SkipsNil(t *testing.T) {
	cfg := &testConfig{}

	require.NoError(t, Apply(cfg, nil, withName("x")))
	require.Equal(t, "x", cfg.Name)
	require.NoError(t, Apply[*testConfig](cfg))
}
