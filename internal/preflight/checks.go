package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"meetscribe/internal/config"
	"meetscribe/internal/deps"
	"meetscribe/internal/services/huggingface"
)

// TokenValidator checks a Hugging Face token.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (huggingface.Account, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the binaries meetscribe shells out to. Both the
// pipeline and the status command use this list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for converting recordings to 16 kHz mono WAV",
		},
		{
			Name:        "uvx",
			Command:     cfg.UVXBinary(),
			Description: "Required for running WhisperX and pyannote",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Describes non-WAV recordings before conversion",
			Optional:    true,
		},
	}
	return deps.Check(requirements)
}

// CheckHuggingFace verifies the configured token with a 15-second budget.
func CheckHuggingFace(ctx context.Context, token string, validator TokenValidator) Result {
	const name = "Hugging Face token"

	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Name: name, Detail: "missing (set [huggingface] token or HF_TOKEN)"}
	}
	if validator == nil {
		return Result{Name: name, Passed: true, Detail: "configured (" + config.MaskToken(token) + ")"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	account, err := validator.Validate(checkCtx, token)
	if err != nil {
		if errors.Is(err, huggingface.ErrUnauthorized) {
			return Result{Name: name, Detail: "rejected by Hugging Face (check the token)"}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: name, Detail: "validation timed out"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "valid for " + account.Name}
}
