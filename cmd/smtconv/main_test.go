package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
key:
  converter: string
value:
  converter: json
  converter.schemas.enable: false
  transforms: only,route
  transforms.only.type: filter
  transforms.only.topics: shop.*
  transforms.route.type: replace
  transforms.route.topic.regex: ^shop\.(.*)$
  transforms.route.topic.replacement: paid.$1
pipeline:
  peers:
    - name: mem
      connector: memory
`

const testInput = `{"topic":"shop.orders","key":1,"value":{"id":1}}
{"topic":"audit.log","value":{"id":2}}
{"topic":"shop.refunds","value":{"id":3},"timestamp":1700000000000}
`

// memoryConnector keeps published messages for inspection.
type memoryConnector struct{}

var (
	memoryMu       sync.Mutex
	memoryMessages []pipeline.Message
)

func (memoryConnector) Connect(json.RawMessage, ...any) error { return nil }

func (memoryConnector) Pub(msg pipeline.Message, _ ...any) error {
	memoryMu.Lock()
	defer memoryMu.Unlock()
	memoryMessages = append(memoryMessages, msg)
	return nil
}

func (memoryConnector) Disconnect() error { return nil }

func init() {
	pipeline.RegisterConnector("memory", func() pipeline.Connector { return memoryConnector{} })
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "none"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestEncode(t *testing.T) {
	cfg := writeFile(t, "smtconv.yaml", testConfig)

	out, err := run(t, testInput, "--config", cfg, "encode")
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1}\n{\"id\":3}\n", out)

	out, err = run(t, testInput, "--config", cfg, "encode", "--print-topic", "--format", "hex")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "paid.orders\t"+hex.EncodeToString([]byte(`{"id":1}`)), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "paid.refunds\t"))

	input := writeFile(t, "records.json", testInput)
	out, err = run(t, "", "--config", cfg, "encode", "--input", input, "--format", "base64")
	require.NoError(t, err)
	assert.Equal(t, "eyJpZCI6MX0=\neyJpZCI6M30=\n", out)
}

func TestEncodeErrors(t *testing.T) {
	cfg := writeFile(t, "smtconv.yaml", testConfig)

	_, err := run(t, testInput, "--config", cfg, "encode", "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")

	_, err = run(t, `{"value":1}`, "--config", cfg, "encode")
	assert.ErrorContains(t, err, "record 1: topic is required")

	_, err = run(t, `{"topic":"shop.a","value":1}{"topic":`, "--config", cfg, "encode")
	assert.ErrorContains(t, err, "record 2")

	empty := writeFile(t, "empty.yaml", "metrics:\n  enabled: false\n")
	_, err = run(t, testInput, "--config", empty, "encode")
	assert.ErrorContains(t, err, "value converter is not configured")

	bad := writeFile(t, "bad.yaml", "value:\n  converter: nope\n")
	_, err = run(t, testInput, "--config", bad, "encode")
	assert.ErrorContains(t, err, "value converter")

	_, err = run(t, testInput, "--config", "/nonexistent/smtconv.yaml", "encode")
	assert.ErrorContains(t, err, "error loading config")
}

func TestProduce(t *testing.T) {
	memoryMu.Lock()
	memoryMessages = nil
	memoryMu.Unlock()

	cfg := writeFile(t, "smtconv.yaml", testConfig)
	_, err := run(t, testInput, "--config", cfg, "produce")
	require.NoError(t, err)

	memoryMu.Lock()
	defer memoryMu.Unlock()
	require.Len(t, memoryMessages, 2)
	assert.Equal(t, "paid.orders", memoryMessages[0].Topic)
	assert.Equal(t, []byte("1"), memoryMessages[0].Key)
	assert.Equal(t, []byte(`{"id":1}`), memoryMessages[0].Value)
	assert.Equal(t, "paid.refunds", memoryMessages[1].Topic)
	assert.Nil(t, memoryMessages[1].Key)
	assert.Equal(t, int64(1700000000000), memoryMessages[1].Timestamp.UnixMilli())
}

func TestProduceErrors(t *testing.T) {
	noPeers := writeFile(t, "nopeers.yaml", "value:\n  converter: string\n")
	_, err := run(t, testInput, "--config", noPeers, "produce")
	assert.ErrorContains(t, err, "no peers configured")

	unknown := writeFile(t, "unknown.yaml", "value:\n  converter: string\npipeline:\n  peers:\n    - name: x\n      connector: carrier-pigeon\n")
	_, err = run(t, testInput, "--config", unknown, "produce")
	assert.ErrorIs(t, err, pipeline.ErrConnectorNotFound)
}

func TestPlugins(t *testing.T) {
	out, err := run(t, "", "plugins", "--options")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	for _, name := range []string{"filter", "replace", "insert", "json", "registry", "kafka", "nats", "debug"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "topic.regex")
	assert.Contains(t, out, "transformation")
	assert.Contains(t, out, "connector")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestLogLevel(t *testing.T) {
	_, err := newLogger("loud")
	assert.Error(t, err)

	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)
}
