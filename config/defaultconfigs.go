package config

var DefaultConfig Config
var DefaultTheme Theme

func init() {
	DefaultTheme = Theme{
		UnicodePieces: true,
		Colors: ConfigColors{
			LightSquare:     215,
			DarkSquare:      172,
			LightLastMove:   143,
			DarkLastMove:    136,
			WhitePiece:      231,
			BlackPiece:      232,
			Coordinates:     242,
			CheckBackground: 9,
		},
	}

	DefaultConfig = Config{
		Theme: DefaultTheme,
		Engine: EngineConfig{
			Path:               "",
			DefaultLevel:       1,
			PlayBlack:          false,
			Depth:              15,
			HandshakeTimeoutMS: 5000,
			MoveTimeoutMS:      10000,
		},
		LogLevel: "info",
	}
}
