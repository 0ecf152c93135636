package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/adrg/xdg"

	"chs/engine"
)

var (
	cfgFile = "chs/config.json"
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

type ConfigColors struct {
	LightSquare     int `json:"light_square"`
	DarkSquare      int `json:"dark_square"`
	LightLastMove   int `json:"light_last_move"`
	DarkLastMove    int `json:"dark_last_move"`
	WhitePiece      int `json:"white_piece"`
	BlackPiece      int `json:"black_piece"`
	Coordinates     int `json:"coordinates"`
	CheckBackground int `json:"check_bg"`
}

type Theme struct {
	UnicodePieces bool         `json:"unicode_pieces"`
	Colors        ConfigColors `json:"colors"`
}

// EngineConfig holds Stockfish-specific settings.
type EngineConfig struct {
	Path               string `json:"stockfish_path"`
	DefaultLevel       int    `json:"default_level"`
	PlayBlack          bool   `json:"play_black"`
	Depth              int    `json:"depth"`
	HandshakeTimeoutMS int    `json:"handshake_timeout_ms"`
	MoveTimeoutMS      int    `json:"move_timeout_ms"`
}

type Config struct {
	Theme    Theme        `json:"theme"`
	Engine   EngineConfig `json:"engine"`
	LogLevel string       `json:"log_level"`
}

func InitConfig() (*Config, error) {
	config := DefaultConfig
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err == nil {
		if err := readCfgFile(absPath, &config); err != nil {
			return nil, &InvalidConfig{fmt.Sprintf("%s: %s", absPath, err)}
		}
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Engine.DefaultLevel < engine.MinLevel || c.Engine.DefaultLevel > engine.MaxLevel {
		return &InvalidConfig{fmt.Sprintf("default_level must be between %d and %d", engine.MinLevel, engine.MaxLevel)}
	}
	if c.Engine.Depth < 1 {
		return &InvalidConfig{"depth must be positive"}
	}
	if c.Engine.HandshakeTimeoutMS <= 0 || c.Engine.MoveTimeoutMS <= 0 {
		return &InvalidConfig{"timeouts must be positive"}
	}
	for _, color := range []int{c.Theme.Colors.LightSquare, c.Theme.Colors.DarkSquare, c.Theme.Colors.WhitePiece, c.Theme.Colors.BlackPiece} {
		if color < 0 || color > 255 {
			return &InvalidConfig{"colors must be 256-color palette indexes (0-255)"}
		}
	}
	return nil
}

// EngineSettings builds the engine configuration for the given level.
// The binary path is resolved by loc.
func (c *Config) EngineSettings(level int, loc *engine.Locator) engine.Config {
	return engine.Config{
		Path:             loc.Locate(c.Engine.Path),
		Level:            engine.ClampLevel(level),
		Depth:            c.Engine.Depth,
		HandshakeTimeout: time.Duration(c.Engine.HandshakeTimeoutMS) * time.Millisecond,
		MoveTimeout:      time.Duration(c.Engine.MoveTimeoutMS) * time.Millisecond,
		SingleThread:     loc.Termux,
	}
}

func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, c, 0664)
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}

func readCfgFile(filePath string, a interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}
	return json.Unmarshal(data, a)
}
