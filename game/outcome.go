package game

import "github.com/notnil/chess"

// Result describes how a game ended.
type Result struct {
	Over   bool
	Winner chess.Color // chess.NoColor for a draw
	Method chess.Method
}

// Outcome returns the result of the game so far.
func (s *Session) Outcome() Result {
	switch s.game.Outcome() {
	case chess.WhiteWon:
		return Result{Over: true, Winner: chess.White, Method: s.game.Method()}
	case chess.BlackWon:
		return Result{Over: true, Winner: chess.Black, Method: s.game.Method()}
	case chess.Draw:
		return Result{Over: true, Winner: chess.NoColor, Method: s.game.Method()}
	}
	return Result{}
}

// IsDraw returns true if the game ended without a winner.
func (r Result) IsDraw() bool {
	return r.Over && r.Winner == chess.NoColor
}

// Headline is the one-line summary shown when the game ends.
func (r Result) Headline() string {
	switch {
	case !r.Over:
		return ""
	case r.IsDraw():
		return "Game ended in a draw."
	case r.Method == chess.Checkmate:
		return "Checkmate! " + r.Winner.Name() + " wins!"
	}
	return r.Winner.Name() + " wins!"
}

// Reason explains a draw, or is empty.
func (r Result) Reason() string {
	if !r.IsDraw() {
		return ""
	}
	switch r.Method {
	case chess.Stalemate:
		return "Stalemate"
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return "Draw by repetition"
	case chess.InsufficientMaterial:
		return "Draw by insufficient material"
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		return "Draw by the 50-move rule"
	}
	return ""
}

// PlayerWon returns true if the human player won the game.
func (s *Session) PlayerWon() bool {
	r := s.Outcome()
	return r.Over && r.Winner == s.player
}
