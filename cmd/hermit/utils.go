package hermit

import (
	"errors"
	"os"

	"github.com/hermit-shells/hermit/internal/config"
	"golang.org/x/term"
)

// layers is the configuration visible to a command, highest precedence first:
// environment, local file, global file.
type layers struct {
	env, local, global config.FileConfig
}

// loadLayers reads every config source. Missing files are not an error; a
// file or variable that exists but does not parse is.
func loadLayers(dir string) (layers, error) {
	var l layers
	var err error
	if l.global, err = config.LoadGlobal(); err != nil && !errors.Is(err, config.ErrNotFound) {
		return l, err
	}
	if l.local, err = config.LoadLocal(dir); err != nil && !errors.Is(err, config.ErrNotFound) {
		return l, err
	}
	if l.env, err = config.FromEnv(); err != nil {
		return l, err
	}
	return l, nil
}

func (l layers) merged() config.FileConfig {
	return config.Merge(l.env, l.local, l.global)
}

func pickString(cli string, layered *string) string {
	if cli != "" {
		return cli
	}
	if layered != nil {
		return *layered
	}
	return ""
}

func pickInt(cli int, changed bool, layered *int) int {
	if changed {
		return cli
	}
	if layered != nil {
		return *layered
	}
	return cli
}

func pickInt64(cli int64, changed bool, layered *int64) int64 {
	if changed {
		return cli
	}
	if layered != nil {
		return *layered
	}
	return cli
}

func pickBool(cli bool, layered *bool) bool {
	if cli {
		return true
	}
	if layered != nil {
		return *layered
	}
	return false
}

// colorDisabled reports whether output to f should be plain text.
func colorDisabled(noColor bool, f *os.File) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return true
	}
	return !term.IsTerminal(int(f.Fd()))
}
