package engine

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
)

// PathEnv overrides the engine binary when set.
const PathEnv = "CHS_STOCKFISH_PATH"

const termuxPrefix = "/data/data/com.termux/files/usr"

type platform struct {
	goos   string
	goarch string
}

// bundledEngines names the binaries shipped for each platform.
var bundledEngines = map[platform]string{
	{"linux", "amd64"}:   "stockfish_10_x64_linux",
	{"linux", "arm64"}:   "stockfish_16_aarch64_linux",
	{"darwin", "amd64"}:  "stockfish_13_x64_mac",
	{"darwin", "arm64"}:  "stockfish_13_x64_mac",
	{"windows", "amd64"}: "stockfish_10_x64_windows.exe",
}

var termuxEngines = []string{
	termuxPrefix + "/bin/stockfish",
	"/system/bin/stockfish",
}

// Locator resolves which engine binary to launch.
type Locator struct {
	GOOS       string
	GOARCH     string
	Termux     bool
	EngineDirs []string // Searched for bundled binaries
	Getenv     func(string) string
	Exists     func(path string) bool
}

// NewLocator returns a Locator for the running system.
func NewLocator() *Locator {
	dirs := []string{filepath.Join(xdg.DataHome, "chs", "engines")}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "engines"))
	}
	return &Locator{
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		Termux:     IsTermux(),
		EngineDirs: dirs,
		Getenv:     os.Getenv,
		Exists:     fileExists,
	}
}

// Locate returns the engine path. The environment variable wins, then the
// configured path, then the Termux or bundled binaries, then "stockfish" on PATH.
func (l *Locator) Locate(configured string) string {
	if p := l.Getenv(PathEnv); p != "" {
		return p
	}
	if configured != "" {
		return configured
	}
	if l.Termux {
		for _, p := range termuxEngines {
			if l.Exists(p) {
				return p
			}
		}
		return "stockfish"
	}
	name, ok := bundledEngines[platform{l.GOOS, l.GOARCH}]
	if !ok {
		return "stockfish"
	}
	for _, dir := range l.EngineDirs {
		p := filepath.Join(dir, name)
		if l.Exists(p) {
			return p
		}
	}
	return "stockfish"
}

// IsTermux reports whether we are running inside Termux on Android.
func IsTermux() bool {
	return os.Getenv("PREFIX") == termuxPrefix || fileExists(termuxPrefix)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
