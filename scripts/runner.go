package scripts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

const transcribeScript = "transcribe.py"

// Config holds the configuration for the Runner
type Config struct {
	PythonPath  string        // Path to Python executable
	ScriptsPath string        // Path to Python scripts directory
	Timeout     time.Duration // Script execution timeout, zero for none
	Environment []string      // Additional environment variables
}

// TranscriptionResult is the JSON document printed by transcribe.py
type TranscriptionResult struct {
	Text      string  `json:"text"`
	ModelName string  `json:"model_name"`
	Language  string  `json:"language,omitempty"`
	Duration  float64 `json:"duration"`
	Error     string  `json:"error,omitempty"`
}

type Runner struct {
	config Config
	logger *logrus.Logger
}

func NewRunner(cfg Config) (*Runner, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	// Scripts run with the scripts directory as working directory.
	abs, err := filepath.Abs(cfg.ScriptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scripts directory: %w", err)
	}
	cfg.ScriptsPath = abs

	return &Runner{
		config: cfg,
		logger: logrus.StandardLogger(),
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.PythonPath == "" {
		return fmt.Errorf("python path is required")
	}

	if _, err := os.Stat(cfg.ScriptsPath); os.IsNotExist(err) {
		return fmt.Errorf("scripts directory does not exist: %s", cfg.ScriptsPath)
	}

	scriptPath := filepath.Join(cfg.ScriptsPath, transcribeScript)
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		return fmt.Errorf("required script not found: %s", scriptPath)
	}
	return nil
}

// Transcribe runs the local whisper model over the audio file at audioPath.
func (r *Runner) Transcribe(ctx context.Context, audioPath, model string) (*TranscriptionResult, error) {
	const op = "Runner.Transcribe"

	audioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, newScriptError(op, err, "failed to resolve audio path")
	}

	output, err := r.Run(ctx, transcribeScript, map[string]string{
		"audio": audioPath,
		"model": model,
	}, []string{"json"})
	if err != nil {
		return nil, newScriptError(op, err, "transcription failed")
	}

	var result TranscriptionResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, newScriptError(op, err, "failed to parse transcription result")
	}

	if result.Error != "" {
		return nil, newScriptError(op, nil, result.Error)
	}

	return &result, nil
}

// Run executes scriptName with --key=value args and --flag flags and returns
// its stdout.
func (r *Runner) Run(
	ctx context.Context,
	scriptName string,
	args map[string]string,
	flags []string,
) ([]byte, error) {
	const op = "Runner.Run"
	scriptPath := filepath.Join(r.config.ScriptsPath, scriptName)

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	cmdArgs := buildCommandArgs(scriptPath, args, flags)
	logger := r.logger.WithFields(logrus.Fields{
		"script": scriptName,
		"args":   cmdArgs,
	})
	logger.Debug("Executing script")

	cmd := exec.CommandContext(ctx, r.config.PythonPath, cmdArgs...)
	cmd.Dir = r.config.ScriptsPath
	cmd.Env = append(os.Environ(), r.config.Environment...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.WithFields(logrus.Fields{
			"error":  err,
			"stderr": stderr.String(),
		}).Error("Script execution failed")
		return nil, newScriptError(op, err, fmt.Sprintf("script execution failed (stderr: %s)", stderr.String()))
	}

	return stdout.Bytes(), nil
}

func buildCommandArgs(scriptPath string, args map[string]string, flags []string) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmdArgs := []string{scriptPath}
	for _, k := range keys {
		if v := args[k]; v != "" {
			cmdArgs = append(cmdArgs, fmt.Sprintf("--%s=%s", k, v))
		}
	}
	for _, flag := range flags {
		cmdArgs = append(cmdArgs, "--"+flag)
	}
	return cmdArgs
}
