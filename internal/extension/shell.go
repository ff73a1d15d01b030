package extension

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"snipd/internal/logging"
)

// DefaultShellTimeout bounds a shell variable when no timeout is configured.
const DefaultShellTimeout = 5 * time.Second

// Shell runs a command through the platform shell and returns its output.
// Results computed earlier in the pass are exported to the command as
// SNIPD_<NAME> environment variables.
//
// Parameters:
//
//	cmd:   command line; positional args are applied before running
//	shell: "sh", "bash", "cmd" or "powershell" (platform default when empty)
//	trim:  strip surrounding whitespace from the output (default true)
type Shell struct {
	log     *logging.Logger
	timeout time.Duration
}

// NewShell creates the shell extension.
func NewShell(log *logging.Logger, timeout time.Duration) *Shell {
	if log == nil {
		log = logging.Component("extension")
	}
	if timeout <= 0 {
		timeout = DefaultShellTimeout
	}
	return &Shell{log: log, timeout: timeout}
}

func (s *Shell) Name() string { return "shell" }

func (s *Shell) Calculate(params Params, args []string, scope Scope) (Result, error) {
	p := struct {
		Cmd   *string `yaml:"cmd"`
		Shell string  `yaml:"shell"`
		Trim  bool    `yaml:"trim"`
	}{Trim: true}
	if err := params.Decode(&p); err != nil {
		s.log.Warn("invalid shell parameters", "error", err)
		return nil, nil
	}
	if p.Cmd == nil {
		s.log.Warn("no 'cmd' parameter specified for shell variable", "error", ErrMissingData)
		return nil, nil
	}

	name, shellArgs, err := shellCommand(p.Shell, RenderArgs(*p.Cmd, args))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, shellArgs...)
	cmd.Env = append(os.Environ(), scopeEnv(scope)...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		return nil, fmt.Errorf("%w: shell command timed out after %s", ErrInternal, s.timeout)
	case errors.As(err, &exitErr):
		s.log.Warn("shell command exited with non-zero status",
			"exit_code", exitErr.ExitCode(), "stderr", strings.TrimSpace(stderr.String()))
	case err != nil:
		return nil, fmt.Errorf("%w: run shell command: %v", ErrInternal, err)
	}

	out := stdout.String()
	if p.Trim {
		out = strings.TrimSpace(out)
	}
	return Single{Value: out}, nil
}

func shellCommand(shell, line string) (string, []string, error) {
	if shell == "" {
		if runtime.GOOS == "windows" {
			shell = "cmd"
		} else {
			shell = "sh"
		}
	}
	switch shell {
	case "sh", "bash":
		return shell, []string{"-c", line}, nil
	case "cmd":
		return "cmd", []string{"/C", line}, nil
	case "powershell":
		return "powershell", []string{"-NoProfile", "-Command", line}, nil
	default:
		return "", nil, fmt.Errorf("unsupported shell %q", shell)
	}
}

func scopeEnv(scope Scope) []string {
	if scope == nil {
		return nil
	}
	var env []string
	scope.Each(func(name string, r Result) {
		key := "SNIPD_" + strings.ToUpper(strings.Map(func(c rune) rune {
			if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
				return c
			}
			return '_'
		}, name))
		env = append(env, key+"="+r.String())
	})
	return env
}
