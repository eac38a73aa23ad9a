// starts the engine process, speaks UCI over stdin/stdout, and exposes a simple EvalFEN method.

package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hedmana/chess-analysis-board/app/models"
	"github.com/hedmana/chess-analysis-board/app/rules"
)

const defaultUCIDepth = 12

// how long to wait for "bestmove" after sending "stop"
const stopGrace = 500 * time.Millisecond

type UCIEngine struct {
	cmd      *exec.Cmd
	in       *bufio.Writer
	out      *bufio.Scanner
	mu       sync.Mutex
	ready    bool
	settings models.EngineSettings
	rules    rules.Provider
}

func NewUCIEngine(path string, settings models.EngineSettings) (*UCIEngine, error) {
	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	e := &UCIEngine{
		cmd:      cmd,
		in:       bufio.NewWriter(stdin),
		out:      bufio.NewScanner(stdout),
		settings: settings,
		rules:    rules.Notnil{},
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	// Handshake: "uci" -> wait for "uciok"; also "isready" -> "readyok"
	if err := e.handshake(); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("uci handshake with %s: %w", path, err)
	}
	e.ready = true
	return e, nil
}

func (e *UCIEngine) handshake() error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if err := e.waitFor("uciok"); err != nil {
		return err
	}
	if err := e.send("isready"); err != nil {
		return err
	}
	return e.waitFor("readyok")
}

func (e *UCIEngine) Name() string { return KindUCI }

func (e *UCIEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = false
	if e.cmd == nil {
		return nil
	}
	_ = e.send("quit")
	return e.cmd.Wait()
}

func (e *UCIEngine) NewGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return ErrNotReady
	}
	if err := e.send("ucinewgame"); err != nil {
		return err
	}
	if err := e.send("isready"); err != nil {
		return err
	}
	return e.waitFor("readyok")
}

// BestMove validates fen locally before handing it to the engine, so a
// malformed position fails the same way it does for the minimax engine.
func (e *UCIEngine) BestMove(ctx context.Context, fen string) (string, error) {
	pos, err := e.rules.Parse(fen)
	if err != nil {
		return NoMove, err
	}
	score, err := e.EvalFEN(ctx, pos.FEN(), e.settings)
	if err != nil {
		return NoMove, err
	}
	return bestFromUCI(score.Best), nil
}

func (e *UCIEngine) Analyze(ctx context.Context, fen string) (models.Analysis, error) {
	pos, err := e.rules.Parse(fen)
	if err != nil {
		return models.Analysis{}, err
	}
	score, err := e.EvalFEN(ctx, pos.FEN(), e.settings)
	if err != nil {
		return models.Analysis{}, err
	}
	return models.NewAnalysis(whitePOV(score, pos.Turn()), bestFromUCI(score.Best)), nil
}

// EvalFEN evaluates one position. Use either a fixed depth or movetime.
// For beginners, movetime is simple and predictable across hardware.
func (e *UCIEngine) EvalFEN(ctx context.Context, fen string, settings models.EngineSettings) (models.UCIScore, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return models.UCIScore{}, ErrNotReady
	}

	// Load position
	if err := e.send(fmt.Sprintf("position fen %s", fen)); err != nil {
		return models.UCIScore{}, err
	}

	if settings.UseDepth {
		// Analyze using depth
		depth := settings.Depth
		if depth <= 0 {
			depth = defaultUCIDepth
		}
		if err := e.send(fmt.Sprintf("go depth %d", depth)); err != nil {
			return models.UCIScore{}, err
		}
	} else {
		//analyze using movetime
		if err := e.send(fmt.Sprintf("go movetime %d", settings.MoveTimeMS)); err != nil {
			return models.UCIScore{}, err
		}
	}

	var lastScoreCP *int
	var lastScoreMate *int
	var best string

	// Read until "bestmove ..." or context cancels
	readDone := make(chan error, 1)
	go func() {
		sawBest := false
		for e.out.Scan() {
			line := e.out.Text()
			// Examples we parse:
			// info depth 18 ... score cp 23 ...
			// info depth 20 ... score mate 3 ...
			// bestmove e2e4
			if strings.HasPrefix(line, "info ") {
				if i := strings.Index(line, " score "); i != -1 {
					// score cp N  OR score mate N
					scorePart := line[i+1:]
					if strings.HasPrefix(scorePart, "score cp ") {
						var cp int
						_, _ = fmt.Sscanf(scorePart, "score cp %d", &cp)
						lastScoreCP = &cp
						lastScoreMate = nil
					} else if strings.HasPrefix(scorePart, "score mate ") {
						var m int
						_, _ = fmt.Sscanf(scorePart, "score mate %d", &m)
						lastScoreMate = &m
						lastScoreCP = nil
					}
				}
			} else if strings.HasPrefix(line, "bestmove ") {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					best = fields[1]
				}
				sawBest = true
				break
			}
		}
		err := e.out.Err()
		if err == nil && !sawBest {
			err = io.ErrUnexpectedEOF
		}
		readDone <- err
	}()

	var err error
	select {
	case <-ctx.Done():
		_ = e.send("stop")
		select {
		case err = <-readDone:
		case <-time.After(stopGrace):
			// the reader still owns the pipe; nothing after this can trust it
			e.ready = false
			err = ctx.Err()
		}
	case err = <-readDone:
	}
	if err != nil {
		return models.UCIScore{}, err
	}

	return models.UCIScore{CP: lastScoreCP, Mate: lastScoreMate, Best: best}, nil
}

func (e *UCIEngine) send(cmd string) error {
	_, err := fmt.Fprintln(e.in, cmd)
	if err != nil {
		return err
	}
	return e.in.Flush()
}

func (e *UCIEngine) waitFor(token string) error {
	for e.out.Scan() {
		if strings.TrimSpace(e.out.Text()) == token {
			return nil
		}
	}
	if err := e.out.Err(); err != nil {
		return err
	}
	return fmt.Errorf("engine output ended before %q", token)
}

// UCI engines report "bestmove (none)" when there is nothing to play.
func bestFromUCI(best string) string {
	switch best {
	case "", "(none)", "0000":
		return NoMove
	}
	return best
}

// whitePOV converts a side-to-move score into the white-positive convention
// used everywhere else.
func whitePOV(score models.UCIScore, turn rules.Color) models.Evaluation {
	sign := 1
	if turn == rules.Black {
		sign = -1
	}
	switch {
	case score.Mate != nil:
		return models.Evaluation{Type: models.EvalMate, Value: sign * *score.Mate}
	case score.CP != nil:
		return models.Evaluation{Type: models.EvalCentipawns, Value: sign * *score.CP}
	}
	return models.Evaluation{Type: models.EvalCentipawns}
}
