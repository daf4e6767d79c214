package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"com.aviebrantz.studio-site/pkg/config"
	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	handler, err := newHandler("json", &buf)
	require.NoError(t, err)

	logger := &log.Logger{Handler: handler, Level: log.InfoLevel}
	logger.WithField("module", "test").Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "hello", entry["message"])
	require.Equal(t, "test", entry["fields"].(map[string]interface{})["module"])
}

func TestUnknownFormat(t *testing.T) {
	_, err := newHandler("xml", &bytes.Buffer{})
	require.Error(t, err)
}

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "studio.log")
	closer, err := Setup(config.LogConfig{Level: "debug", Format: "text", File: path})
	require.NoError(t, err)
	t.Cleanup(func() { log.SetHandler(text.New(os.Stderr)) })

	log.WithField("module", "test").Debug("written to disk")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "written to disk")
}

func TestSetupRejectsBadLevel(t *testing.T) {
	_, err := Setup(config.LogConfig{Level: "loud"})
	require.Error(t, err)
}
