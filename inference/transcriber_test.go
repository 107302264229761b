package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/nijaru/yt-blog/config"
	"github.com/nijaru/yt-blog/scripts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhisperTranscribe(t *testing.T) {
	var gotModel, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFile = header.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "  hello from whisper \n"})
	}))
	defer srv.Close()

	tr := NewWhisper(srv.URL+"/v1/", "", "base")
	text, err := tr.Transcribe(context.Background(), writeAudio(t, "ID3"))

	require.NoError(t, err)
	assert.Equal(t, "hello from whisper", text)
	assert.Equal(t, "base", gotModel)
	assert.Equal(t, "audio.mp3", gotFile)
}

func TestWhisperTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "model not loaded", "type": "server_error"}}`))
	}))
	defer srv.Close()

	tr := NewWhisper(srv.URL+"/v1", "", "base")
	_, err := tr.Transcribe(context.Background(), writeAudio(t, "ID3"))

	assert.ErrorContains(t, err, "transcription request failed")
}

func TestScriptTranscribe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transcribe.py"), []byte("# stub\n"), 0644))
	python := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(python, []byte("#!/bin/sh\necho '{\"text\": \" local text \", \"model_name\": \"tiny\"}'\n"), 0755))

	runner, err := scripts.NewRunner(scripts.Config{PythonPath: python, ScriptsPath: dir})
	require.NoError(t, err)

	text, err := NewScript(runner, "tiny").Transcribe(context.Background(), writeAudio(t, "ID3"))
	require.NoError(t, err)
	assert.Equal(t, "local text", text)
}

func TestNewTranscriber(t *testing.T) {
	tr, err := NewTranscriber(config.WhisperConfig{Backend: config.TranscriberWhisper, Model: "base"})
	require.NoError(t, err)
	assert.IsType(t, &Whisper{}, tr)

	_, err = NewTranscriber(config.WhisperConfig{
		Backend:     config.TranscriberScript,
		PythonPath:  "python3",
		ScriptsPath: filepath.Join(t.TempDir(), "missing"),
	})
	assert.ErrorContains(t, err, "failed to initialize script runner")

	_, err = NewTranscriber(config.WhisperConfig{Backend: "telepathy"})
	assert.Error(t, err)
}
