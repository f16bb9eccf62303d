package tts

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const vctkVoiceConfig = `{
  "audio": {"sample_rate": 22050, "quality": "medium"},
  "num_speakers": 4,
  "speaker_id_map": {"p239": 3, "p225": 0, "p227": 2, "p226": 1}
}`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func newPiperFixture(t *testing.T, script string) (*PiperTTS, string) {
	t.Helper()
	dir := t.TempDir()
	bin := writeScript(t, dir, "piper", script)
	model := filepath.Join(dir, "voice.onnx")
	require.NoError(t, os.WriteFile(model, []byte("onnx"), 0o600))
	require.NoError(t, os.WriteFile(model+".json", []byte(vctkVoiceConfig), 0o600))

	p, err := NewPiperTTS(PiperConfig{BinaryPath: bin, ModelPath: model}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p, bin
}

func TestParsePiperVoiceConfig(t *testing.T) {
	voice, err := parsePiperVoiceConfig([]byte(vctkVoiceConfig))
	require.NoError(t, err)
	assert.Equal(t, 22050, voice.Audio.SampleRate)
	assert.Equal(t, []string{"p225", "p226", "p227", "p239"}, orderedSpeakers(voice.SpeakerIDMap))

	single, err := parsePiperVoiceConfig([]byte(`{"audio":{"sample_rate":16000},"num_speakers":1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, orderedSpeakers(single.SpeakerIDMap))

	_, err = parsePiperVoiceConfig([]byte(`{"audio":{}}`))
	assert.Error(t, err)
	_, err = parsePiperVoiceConfig([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewPiperTTS_MissingModel(t *testing.T) {
	_, err := NewPiperTTS(PiperConfig{ModelPath: filepath.Join(t.TempDir(), "nope.onnx")}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewPiperTTS(PiperConfig{}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestPiperTTS_Synthesize(t *testing.T) {
	p, bin := newPiperFixture(t, `echo "$@" > "$0.args"
cat > "$0.stdin"
printf '\000\100\000\300'
`)

	assert.Equal(t, []string{"p225", "p226", "p227", "p239"}, p.Speakers())
	assert.Equal(t, 22050, p.SampleRate())

	wave, err := p.Synthesize(context.Background(), "hello\nworld", "p227")
	require.NoError(t, err)
	assert.Equal(t, 22050, wave.SampleRate)
	require.Len(t, wave.Samples, 2)
	assert.InDelta(t, 0.5, wave.Samples[0], 1e-6)
	assert.InDelta(t, -0.5, wave.Samples[1], 1e-6)

	args, err := os.ReadFile(bin + ".args")
	require.NoError(t, err)
	assert.Contains(t, string(args), "--output_raw")
	assert.Contains(t, string(args), "--speaker 2")

	stdin, err := os.ReadFile(bin + ".stdin")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(stdin))
}

func TestPiperTTS_SynthesizeErrors(t *testing.T) {
	p, _ := newPiperFixture(t, `echo "voice failed to load" >&2
exit 3
`)

	_, err := p.Synthesize(context.Background(), "hello", "p225")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "voice failed to load"))

	_, err = p.Synthesize(context.Background(), "hello", "p999")
	assert.ErrorContains(t, err, "unknown speaker")

	_, err = p.Synthesize(context.Background(), "", "p225")
	assert.Error(t, err)
}

func TestPiperTTS_ContextCancel(t *testing.T) {
	p, _ := newPiperFixture(t, "exec sleep 5\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Synthesize(ctx, "hello", "p225")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestMockTextToSpeech(t *testing.T) {
	m := NewMockTextToSpeech(zaptest.NewLogger(t))
	speakers := m.Speakers()
	require.Len(t, speakers, 6)

	wave, err := m.Synthesize(context.Background(), "hi", speakers[4])
	require.NoError(t, err)
	assert.Equal(t, mockSampleRate, wave.SampleRate)
	assert.Len(t, wave.Samples, 2*mockSamplesPerRune)

	_, err = m.Synthesize(context.Background(), "hi", "nobody")
	assert.Error(t, err)
}
