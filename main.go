// chs is a terminal application to play chess against Stockfish.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"chs/config"
	"chs/engine"
	"chs/engine/uci"
	"chs/game"
	"chs/logging"
	"chs/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagLevel      = flag.String("level", "", "Stockfish level (1-8)")
	flagPlayBlack  = flag.Bool("play-black", false, "Play as black")
	flagPlain      = flag.Bool("plain", false, "Use the line-mode interface instead of the full-screen board")
	flagQuickStart = flag.Bool("play", false, "Start game immediately with saved defaults")
	flagDepth      = flag.Int("depth", 0, "Search depth (default from config)")
	flagVersion    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = usage
	flag.Parse()

	switch flag.Arg(0) {
	case "":
	case "help":
		usage()
		return 0
	case "version":
		fmt.Printf("chs %s\n", Version)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "chs: unknown command %q\n", flag.Arg(0))
		usage()
		return 2
	}

	// Handle --version
	if *flagVersion {
		fmt.Printf("chs %s\n", Version)
		return 0
	}

	cfg, err := config.InitConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chs: %s\n", err)
		return 1
	}

	log, closer, err := logging.Init(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chs: logging disabled: %s\n", err)
	}
	defer closer.Close()

	settings := ui.Settings{Level: cfg.Engine.DefaultLevel, PlayBlack: cfg.Engine.PlayBlack}
	if *flagLevel != "" {
		level, err := engine.ParseLevel(*flagLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "chs: %s\n", err)
			return 1
		}
		settings.Level = level
	}
	if *flagPlayBlack {
		settings.PlayBlack = true
	}
	if *flagDepth > 0 {
		cfg.Engine.Depth = *flagDepth
	}

	loc := engine.NewLocator()
	plain := *flagPlain || loc.Termux

	// Check if quick start requested
	quickStart := *flagQuickStart || *flagLevel != "" || *flagPlayBlack
	if !quickStart && !plain {
		chosen, ok, err := ui.RunSetup(settings, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "chs: %s\n", err)
			return 1
		}
		if !ok {
			return 0
		}
		settings = chosen
		rememberSettings(cfg, settings, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := play(ctx, cfg, loc, settings, plain, log); err != nil {
		fmt.Fprintf(os.Stderr, "chs: %s\n", describe(err, loc, cfg))
		return 1
	}
	return 0
}

// play starts both engines and runs one game in the chosen front end.
func play(ctx context.Context, cfg *config.Config, loc *engine.Locator, settings ui.Settings, plain bool, log zerolog.Logger) error {
	player := chess.White
	if settings.PlayBlack {
		player = chess.Black
	}

	pool := engine.NewPool(
		uci.New(cfg.EngineSettings(settings.Level, loc), log),
		uci.New(cfg.EngineSettings(engine.HintLevel, loc), log),
	)

	fmt.Println("Starting Stockfish...")
	return pool.Run(ctx, func(ctx context.Context, p *engine.Pool) error {
		ctrl := game.NewController(game.NewSession(settings.Level, player), p, log)
		if plain {
			return ui.RunPlain(ctx, ctrl, cfg.Theme, log)
		}
		return ui.RunGame(ctx, ctrl, cfg, log)
	})
}

// rememberSettings stores the setup choices as the new defaults.
func rememberSettings(cfg *config.Config, settings ui.Settings, log zerolog.Logger) {
	cfg.Engine.DefaultLevel = settings.Level
	cfg.Engine.PlayBlack = settings.PlayBlack
	if err := cfg.Save(); err != nil {
		log.Warn().Err(err).Msg("could not save settings")
	}
}

// describe turns start failures into advice for the player.
func describe(err error, loc *engine.Locator, cfg *config.Config) string {
	switch {
	case errors.Is(err, engine.ErrSpawn):
		return fmt.Sprintf("%s\nInstall Stockfish or point %s at it (tried %q).", err, engine.PathEnv, loc.Locate(cfg.Engine.Path))
	case errors.Is(err, engine.ErrInitTimeout):
		return fmt.Sprintf("%s\nThe engine did not answer the UCI handshake. Is %q a UCI engine?", err, loc.Locate(cfg.Engine.Path))
	}
	return err.Error()
}

func usage() {
	w := flag.CommandLine.Output()
	io.WriteString(w, `Usage: chs [flags] [help|version]

Play chess against Stockfish in the terminal.

Flags:
`)
	flag.PrintDefaults()
	fmt.Fprintf(w, `
Environment:
  %s  path to the Stockfish binary

At the move prompt type a move (e4, Nf3, O-O, g1f3), or one of
  back   take back your last move
  hint   ask for the best move
  quit   leave the game
`, engine.PathEnv)
}
