// Package game tracks a single game between the player and the engine.
package game

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"chs/engine"
)

var (
	ErrGameOver          = errors.New("game is over")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrNothingToTakeBack = errors.New("no moves to take back")
)

// InvalidMoveError is returned for input that isn't a legal move.
// Suggestion holds the closest legal move, if one is close enough.
type InvalidMoveError struct {
	Input      string
	Suggestion string
}

func (e *InvalidMoveError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("invalid move %q, did you mean %q?", e.Input, e.Suggestion)
	}
	return fmt.Sprintf("invalid move %q, use algebraic notation (e.g. e4, Nf3)", e.Input)
}

// maxSuggestDistance is the largest edit distance still worth suggesting.
const maxSuggestDistance = 2

var (
	san = chess.AlgebraicNotation{}
	uci = chess.UCINotation{}
)

// Session is a game in progress. It is not safe for concurrent use.
type Session struct {
	game    *chess.Game
	player  chess.Color
	level   int
	moves   []string // UCI, for replaying after a takeback
	history []string // SAN
}

// NewSession starts a game from the initial position.
func NewSession(level int, player chess.Color) *Session {
	return &Session{
		game:   chess.NewGame(),
		player: player,
		level:  engine.ClampLevel(level),
	}
}

func (s *Session) Level() int { return s.level }
func (s *Session) Player() chess.Color { return s.player }
func (s *Session) Turn() chess.Color { return s.game.Position().Turn() }
func (s *Session) Board() *chess.Board { return s.game.Position().Board() }
func (s *Session) FEN() string { return s.game.Position().String() }
func (s *Session) IsPlayerTurn() bool { return s.Turn() == s.player }
func (s *Session) History() []string { return append([]string(nil), s.history...) }
func (s *Session) IsOver() bool { return s.game.Outcome() != chess.NoOutcome }
func (s *Session) ValidMoves() []*chess.Move { return s.game.ValidMoves() }

// LastMove returns the most recent move, or nil at the start.
func (s *Session) LastMove() *chess.Move {
	moves := s.game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

// InCheck returns true if the side to move is in check.
func (s *Session) InCheck() bool {
	m := s.LastMove()
	return m != nil && m.HasTag(chess.Check)
}

// PlayerMove plays the player's move given in SAN (e4, Nf3, O-O) or
// coordinate notation (g1f3). It returns the move in SAN.
func (s *Session) PlayerMove(input string) (string, error) {
	if s.IsOver() {
		return "", ErrGameOver
	}
	if !s.IsPlayerTurn() {
		return "", ErrNotYourTurn
	}
	m := s.decode(strings.TrimSpace(input))
	if m == nil {
		return "", &InvalidMoveError{Input: input, Suggestion: s.Suggest(input)}
	}
	return s.apply(m)
}

// ApplyEngineMove plays a move reported by the engine. NoMove does nothing.
func (s *Session) ApplyEngineMove(mv engine.Move) (string, error) {
	if mv.IsNone() {
		return "", nil
	}
	if s.IsOver() {
		return "", ErrGameOver
	}
	m := s.decodeUCI(mv.String())
	if m == nil {
		return "", errors.Errorf("engine played illegal move %q", mv)
	}
	return s.apply(m)
}

// HintSAN converts a hint from the engine to SAN for display.
func (s *Session) HintSAN(mv engine.Move) string {
	if mv.IsNone() {
		return ""
	}
	if m := s.decodeUCI(mv.String()); m != nil {
		return san.Encode(s.game.Position(), m)
	}
	return mv.String()
}

// Suggest returns the legal SAN move closest to input, or "" if none is close.
func (s *Session) Suggest(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}
	pos := s.game.Position()
	legal := lo.Map(s.game.ValidMoves(), func(m *chess.Move, _ int) string {
		return san.Encode(pos, m)
	})

	best, bestDist := "", maxSuggestDistance+1
	for _, mv := range legal {
		d := levenshtein.ComputeDistance(input, strings.ToLower(mv))
		if d < bestDist {
			best, bestDist = mv, d
		}
	}
	return best
}

// TakeBack undoes the player's last move along with the engine's reply.
// It returns the number of plies removed.
func (s *Session) TakeBack() (int, error) {
	undo := 1
	if s.IsPlayerTurn() {
		undo = 2
	}
	keep := len(s.moves) - undo
	if keep < 0 || !s.playerToMoveAfter(keep) {
		return 0, ErrNothingToTakeBack
	}

	g := chess.NewGame()
	for _, str := range s.moves[:keep] {
		m, err := uci.Decode(g.Position(), str)
		if err != nil {
			return 0, errors.Wrapf(err, "replay %s", str)
		}
		if err := g.Move(m); err != nil {
			return 0, errors.Wrapf(err, "replay %s", str)
		}
	}
	s.game = g
	s.moves = s.moves[:keep]
	s.history = s.history[:keep]
	return undo, nil
}

// playerToMoveAfter reports whether it is the player's turn after n plies
// from the initial position.
func (s *Session) playerToMoveAfter(n int) bool {
	whiteToMove := n%2 == 0
	return whiteToMove == (s.player == chess.White)
}

func (s *Session) apply(m *chess.Move) (string, error) {
	pos := s.game.Position()
	notation := san.Encode(pos, m)
	coord := uci.Encode(pos, m)
	if err := s.game.Move(m); err != nil {
		return "", errors.Wrapf(err, "move %s", notation)
	}
	s.moves = append(s.moves, coord)
	s.history = append(s.history, notation)
	s.claimDraw()
	return notation, nil
}

// claimDraw ends the game on threefold repetition or the fifty-move rule,
// which the rules only make claimable.
func (s *Session) claimDraw() {
	if s.IsOver() {
		return
	}
	for _, method := range s.game.EligibleDraws() {
		if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
			s.game.Draw(method)
			return
		}
	}
}

func (s *Session) decode(input string) *chess.Move {
	if input == "" {
		return nil
	}
	pos := s.game.Position()
	candidates := []string{input, strings.ReplaceAll(input, "0", "O")}
	if strings.ContainsRune("nbrqk", rune(input[0])) && len(input) > 2 {
		candidates = append(candidates, strings.ToUpper(input[:1])+input[1:])
	}
	for _, c := range candidates {
		if m, err := san.Decode(pos, c); err == nil {
			return m
		}
	}
	return s.decodeUCI(strings.ToLower(input))
}

// decodeUCI returns the legal move for a coordinate string, or nil.
func (s *Session) decodeUCI(str string) *chess.Move {
	m, err := uci.Decode(s.game.Position(), str)
	if err != nil {
		return nil
	}
	for _, valid := range s.game.ValidMoves() {
		if valid.S1() == m.S1() && valid.S2() == m.S2() && valid.Promo() == m.Promo() {
			return valid
		}
	}
	return nil
}
