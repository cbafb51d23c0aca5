package confkit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earlybot/pkg/confkit"
)

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/abs/file.yaml", confkit.ResolvePath("/base", "/abs/file.yaml"))
	assert.Equal(t, filepath.Join("/base", "conf", "file.yaml"), confkit.ResolvePath("/base", "conf/file.yaml"))

	t.Setenv("EARLYBOT_CONF_DIR", "confdir")
	assert.Equal(t, filepath.Join("/base", "confdir", "file.yaml"),
		confkit.ResolvePath("/base", "${EARLYBOT_CONF_DIR}/file.yaml"))
}

func TestBaseDir(t *testing.T) {
	assert.Equal(t, "/etc/earlybot", confkit.BaseDir("/etc/earlybot/app.yaml"))
	assert.Equal(t, ".", confkit.BaseDir("app.yaml"))
}

type sampleSection struct {
	Name string `json:"Name"`
}

func TestSectionHydrate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "section.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Name: risk\n"), 0o644))

	s := confkit.Section[sampleSection]{File: "section.yaml"}
	err := s.Hydrate(dir, func(p string) (*sampleSection, error) {
		return confkit.LoadFile[sampleSection](p, false)
	})
	require.NoError(t, err)
	require.NotNil(t, s.Value)
	assert.Equal(t, "risk", s.Value.Name)
	assert.Equal(t, path, s.File)
}

func TestSectionHydrateEmptyFile(t *testing.T) {
	s := confkit.Section[sampleSection]{}
	require.NoError(t, s.Hydrate("/base", nil))
	assert.Nil(t, s.Value)
}
