package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/robert-malhotra/phicore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PHICORE_LOG_LEVEL", "PHICORE_CODEC", "PHICORE_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "deflate", cfg.Write.Codec)
	assert.Len(t, cfg.WriteOptions(), 2)

	lvl, err := cfg.ZapLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "phicore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
write:
  codec: lz4
  fletcher32: true
  chunks: [8, 8, 64]
read:
  working_memory_mib: 64
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "lz4", cfg.Write.Codec)
	assert.True(t, cfg.Write.Shuffle, "unset keys keep their defaults")
	assert.True(t, cfg.Write.Fletcher32)
	assert.Equal(t, []int{8, 8, 64}, cfg.Write.Chunks)
	assert.Equal(t, 64.0, cfg.Read.WorkingMemoryMiB)
	assert.Len(t, cfg.WriteOptions(), 4)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMalformed(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("write: [1, 2"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("codec and level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHICORE_CODEC", "lz4")
		t.Setenv("PHICORE_LEVEL", "7")
		t.Setenv("PHICORE_LOG_LEVEL", "warn")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "lz4", cfg.Write.Codec)
		assert.Equal(t, 7, cfg.Write.Level)
		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("empty codec disables compression", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHICORE_CODEC", "")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Empty(t, cfg.Write.Codec)
	})

	t.Run("bad level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHICORE_LEVEL", "high")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"codec", func(c *Config) { c.Write.Codec = "blosc" }},
		{"deflate level", func(c *Config) { c.Write.Level = 12 }},
		{"chunks", func(c *Config) { c.Write.Chunks = []int{4, 0} }},
		{"working memory", func(c *Config) { c.Read.WorkingMemoryMiB = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestWriteOptionsRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Write = WriteConfig{Codec: "lz4", Shuffle: true, Fletcher32: true, Chunks: []int{2, 2, 5}}

	f, err := phicore.Open(filepath.Join(t.TempDir(), "c.h5"), phicore.ModeCreate)
	require.NoError(t, err)
	defer f.Close()

	data := make([]float64, 4*3*5)
	for i := range data {
		data[i] = float64(i)
	}
	v := &phicore.View{
		Name: "Sxyw",
		Dims: []phicore.Axis{phicore.AxisX, phicore.AxisY, phicore.AxisW},
		Data: phicore.NewArray(data, 4, 3, 5),
		Coords: map[phicore.Axis]*phicore.Array{
			phicore.AxisX: phicore.NewArray([]float64{0, 1, 2, 3}),
			phicore.AxisY: phicore.NewArray([]float64{0, 1, 2}),
			phicore.AxisW: phicore.NewArray([]float64{1, 2, 3, 4, 5}),
		},
	}
	require.NoError(t, f.Write(v, cfg.WriteOptions()...))

	ds, err := f.HDF5().OpenDataset("/data/Sxyw")
	require.NoError(t, err)
	assert.Equal(t, []string{"shuffle", "lz4", "fletcher32"}, ds.Filters())
	assert.Equal(t, []uint64{2, 2, 5}, ds.Chunks())
}
