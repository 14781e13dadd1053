package remesh

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// Invocation timeouts.
const (
	DefaultTimeout      = 300 * time.Second // single-model calls
	DefaultBatchTimeout = 600 * time.Second // batch calls
)

// ToolConfig configures the external remesher invocation.
type ToolConfig struct {
	// Path is the explicit tool location. When empty, the per-platform
	// default install locations are probed.
	Path             string
	Timeout          time.Duration
	CreaseDegrees    float64
	SmoothIterations int
	Deterministic    bool
	// KeepTempFiles retains the interchange files for debugging.
	KeepTempFiles bool
}

// Invoker runs the external command-line remesher with a bounded
// wall-clock timeout.
type Invoker struct {
	cfg ToolConfig
}

// NewInvoker creates an invoker. A zero timeout falls back to
// DefaultTimeout.
func NewInvoker(cfg ToolConfig) *Invoker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Invoker{cfg: cfg}
}

// Invoke serializes the input mesh, runs the tool, and deserializes its
// output. The child process is killed when the timeout elapses. No
// resolvable tool path yields a ToolMissing outcome without launching
// anything.
func (iv *Invoker) Invoke(ctx context.Context, in *mesh.Mesh, targetFaces int) Outcome {
	toolPath, ok := iv.resolveToolPath()
	if !ok {
		return Outcome{Status: StatusToolMissing}
	}

	tmpDir, err := os.MkdirTemp("", "meshforge-remesh-")
	if err != nil {
		return Outcome{Status: StatusFailed, ExitCode: -1, Stderr: err.Error()}
	}
	if !iv.cfg.KeepTempFiles {
		defer os.RemoveAll(tmpDir)
	} else {
		logger.Debug("retaining remesher temp files", zap.String("dir", tmpDir))
	}

	inPath := filepath.Join(tmpDir, "input.obj")
	outPath := filepath.Join(tmpDir, "output.obj")
	if err := mesh.WriteOBJFile(inPath, in); err != nil {
		return Outcome{Status: StatusFailed, ExitCode: -1, Stderr: err.Error()}
	}

	args := iv.buildArgs(inPath, outPath, targetFaces)

	runCtx, cancel := context.WithTimeout(ctx, iv.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, toolPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// Worker processes spawned by the tool inherit the stderr pipe;
	// without a wait delay a surviving grandchild would keep Run
	// blocked long after the kill.
	cmd.WaitDelay = 5 * time.Second
	setProcessGroup(cmd)

	logger.Debug("running external remesher",
		zap.String("tool", toolPath),
		zap.Strings("args", args),
		zap.Duration("timeout", iv.cfg.Timeout))

	runErr := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Outcome{Status: StatusTimedOut, Stderr: stderr.String()}
	}
	if runErr != nil {
		exitCode := -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
		return Outcome{Status: StatusFailed, ExitCode: exitCode, Stderr: stderr.String()}
	}

	if _, err := os.Stat(outPath); err != nil {
		return Outcome{
			Status:   StatusFailed,
			ExitCode: 0,
			Stderr:   "remesher exited 0 but produced no output file",
		}
	}

	out, err := mesh.ReadOBJFile(outPath)
	if err != nil {
		return Outcome{Status: StatusFailed, ExitCode: 0, Stderr: err.Error()}
	}
	out.Name = in.Name
	return Outcome{Status: StatusSuccess, Mesh: out}
}

// buildArgs encodes the remesher CLI contract: output path, target
// face count, 4-fold rotational/positional symmetry for quad bias,
// crease angle, smoothing iterations, boundary alignment, and the
// optional determinism flag.
func (iv *Invoker) buildArgs(inPath, outPath string, targetFaces int) []string {
	args := []string{
		"-o", outPath,
		"-f", strconv.Itoa(targetFaces),
		"-r", "4",
		"-p", "4",
		"-c", strconv.FormatFloat(iv.cfg.CreaseDegrees, 'f', -1, 64),
		"-S", strconv.Itoa(iv.cfg.SmoothIterations),
		"-b",
	}
	if iv.cfg.Deterministic {
		args = append(args, "-d")
	}
	return append(args, inPath)
}

// resolveToolPath returns the configured path if it exists, otherwise
// the first default install location that does.
func (iv *Invoker) resolveToolPath() (string, bool) {
	if iv.cfg.Path != "" {
		if _, err := os.Stat(iv.cfg.Path); err == nil {
			return iv.cfg.Path, true
		}
		logger.Warn("configured remesher path not found", zap.String("path", iv.cfg.Path))
		return "", false
	}
	for _, candidate := range defaultToolPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	if p, err := exec.LookPath("instant-meshes"); err == nil {
		return p, true
	}
	return "", false
}

func defaultToolPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Instant Meshes.app/Contents/MacOS/Instant Meshes",
			"/usr/local/bin/instant-meshes",
		}
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "Instant Meshes", "Instant Meshes.exe"),
			filepath.Join(os.Getenv("ProgramFiles(x86)"), "Instant Meshes", "Instant Meshes.exe"),
		}
	default: // Linux and others
		home, _ := os.UserHomeDir()
		return []string{
			"/usr/local/bin/instant-meshes",
			"/usr/bin/instant-meshes",
			filepath.Join(home, ".local", "bin", "instant-meshes"),
		}
	}
}
