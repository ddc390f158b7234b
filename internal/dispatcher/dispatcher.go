// internal/dispatcher/dispatcher.go
//
// Routes inbound chat lines to session engine operations and relays the
// engine's notification instructions back out through the transport.
// Responsibilities:
//   - Classify an inbound line into an intent: command (/start, /new_game,
//     /cancel, /say, /addtry), partner-name reply, secret-word reply, or a
//     guess, based on the sender's conversation stage.
//   - Deliver notifications after the engine has released its locks, with a
//     bounded single retry; failures are logged and dropped.
//   - Post-commit side effects: replace the guesser's previous board
//     message, fire the celebration animation on a win, record finished
//     rounds in the match history, and refresh last-partner records.
//
// The engine's errors are all user-input rejections; every one maps to a
// human-readable reply to the sender. Anything unexpected gets a generic
// failure message and is fatal only to that one request.

package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vkotusenko/wordduel/internal/directory"
	"github.com/vkotusenko/wordduel/internal/history"
	"github.com/vkotusenko/wordduel/internal/session"
	"github.com/vkotusenko/wordduel/internal/transport"
)

// Participant is the sender of an inbound line: their directory name and the
// handle outbound replies are delivered to.
type Participant struct {
	Name   string
	Handle string
}

// stageKind is the per-participant conversation stage between commands.
type stageKind int

const (
	stageIdle stageKind = iota
	stageChoosingPartner
	stageSettingWord
	stageComposingSay
)

type stage struct {
	kind    stageKind
	partner string // guesser name, set while kind == stageSettingWord
}

// Dispatcher wires the engine, directory, history and transport together.
type Dispatcher struct {
	engine    *session.Engine
	dir       directory.Directory
	transport transport.Transport
	history   *history.Store // optional; nil disables match history
	cfg       session.Config
	gifURL    string // celebration animation; empty disables it
	log       zerolog.Logger

	mu        sync.Mutex
	stages    map[string]stage
	lastBoard map[string]transport.MessageRef // previous board message per handle
}

// New constructs a Dispatcher. history may be nil. Zero Config fields fall
// back to the engine defaults so rejection texts quote real limits.
func New(engine *session.Engine, dir directory.Directory, tr transport.Transport,
	hist *history.Store, cfg session.Config, gifURL string, log zerolog.Logger) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = session.DefaultMaxAttempts
	}
	if cfg.MinWordLen <= 0 {
		cfg.MinWordLen = session.DefaultMinWordLen
	}
	if cfg.MaxWordLen <= 0 {
		cfg.MaxWordLen = session.DefaultMaxWordLen
	}
	return &Dispatcher{
		engine:    engine,
		dir:       dir,
		transport: tr,
		history:   hist,
		cfg:       cfg,
		gifURL:    gifURL,
		log:       log,
		stages:    make(map[string]stage),
		lastBoard: make(map[string]transport.MessageRef),
	}
}

// HandleInbound processes one chat line from a participant. All outcomes,
// including rejections, are reported back to the participants over the
// transport; the returned error covers only transport-independent failures.
func (d *Dispatcher) HandleInbound(ctx context.Context, from Participant, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		return d.handleCommand(ctx, from, text)
	}

	switch st := d.stageOf(from.Name); st.kind {
	case stageChoosingPartner:
		return d.handlePartnerReply(ctx, from, text)
	case stageSettingWord:
		return d.handleWordReply(ctx, from, st.partner, text)
	case stageComposingSay:
		d.setStage(from.Name, stage{kind: stageIdle})
		return d.relaySay(ctx, from, text)
	default:
		return d.handleGuess(ctx, from, text)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, from Participant, text string) error {
	cmd, rest, _ := strings.Cut(text, " ")
	switch cmd {
	case "/start":
		if err := d.dir.Record(from.Name, from.Handle, ""); err != nil {
			d.log.Error().Err(err).Str("name", from.Name).Msg("record participant")
		}
		d.reply(ctx, from.Handle, msgStart)

	case "/new_game":
		d.setStage(from.Name, stage{kind: stageChoosingPartner})
		if last, ok := d.dir.LastPartner(from.Name); ok {
			d.reply(ctx, from.Handle, fmt.Sprintf(msgNewGameLast, last))
		} else {
			d.reply(ctx, from.Handle, msgNewGame)
		}

	case "/cancel":
		d.setStage(from.Name, stage{kind: stageIdle})
		res, err := d.engine.CancelSession(from.Name)
		if err != nil {
			d.replyError(ctx, from, err)
			return nil
		}
		d.deliver(ctx, res.Notifications)

	case "/addtry":
		res, err := d.engine.IncrementMaxAttempts(from.Name)
		if err != nil {
			if errors.Is(err, session.ErrNoActiveSession) {
				d.reply(ctx, from.Handle, msgNoAttemptToAdd)
			} else {
				d.replyError(ctx, from, err)
			}
			return nil
		}
		d.deliver(ctx, res.Notifications)

	case "/say":
		if strings.TrimSpace(rest) == "" {
			d.setStage(from.Name, stage{kind: stageComposingSay})
			d.reply(ctx, from.Handle, msgSayPrompt)
			return nil
		}
		return d.relaySay(ctx, from, strings.TrimSpace(rest))

	default:
		d.reply(ctx, from.Handle, msgUnknownCommand)
	}
	return nil
}

// handlePartnerReply pairs the sender with the named participant and creates
// the session. The sender stays in the choosing stage on every rejection.
func (d *Dispatcher) handlePartnerReply(ctx context.Context, from Participant, text string) error {
	partner := strings.TrimPrefix(strings.TrimSpace(text), "@")

	handle, ok := d.dir.Resolve(partner)
	if !ok {
		d.reply(ctx, from.Handle, fmt.Sprintf(msgPartnerUnknown, partner))
		return nil
	}

	res, err := d.engine.CreateSession(from.Name, partner, from.Handle, handle)
	if err != nil {
		if errors.Is(err, session.ErrDuplicateSession) {
			d.reply(ctx, from.Handle, fmt.Sprintf(msgPartnerBusy, partner))
		} else {
			d.replyError(ctx, from, err)
		}
		return nil
	}

	d.recordPartners(from.Name, from.Handle, partner, handle)
	d.setStage(from.Name, stage{kind: stageSettingWord, partner: partner})
	d.deliver(ctx, res.Notifications)
	return nil
}

func (d *Dispatcher) handleWordReply(ctx context.Context, from Participant, partner, text string) error {
	res, err := d.engine.SetSecretWord(from.Name, partner, text)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidWord):
			d.reply(ctx, from.Handle, fmt.Sprintf(msgInvalidWord, d.cfg.MinWordLen, d.cfg.MaxWordLen))
		case errors.Is(err, session.ErrMixedAlphabet):
			d.reply(ctx, from.Handle, msgMixedAlphabet)
		case errors.Is(err, session.ErrNoActiveSession):
			d.setStage(from.Name, stage{kind: stageIdle})
			d.reply(ctx, from.Handle, msgNoActiveGame)
		default:
			d.replyError(ctx, from, err)
		}
		return nil
	}
	d.setStage(from.Name, stage{kind: stageIdle})
	d.deliver(ctx, res.Notifications)
	return nil
}

func (d *Dispatcher) handleGuess(ctx context.Context, from Participant, text string) error {
	res, err := d.engine.SubmitGuess(from.Name, text)
	if err != nil {
		d.replyError(ctx, from, err)
		return nil
	}

	d.deliver(ctx, res.Notifications)

	if res.Outcome == session.OutcomeWin || res.Outcome == session.OutcomeLoss {
		s := res.Session
		d.recordPartners(s.Setter, s.SetterHandle, s.Guesser, s.GuesserHandle)
		d.recordRound(ctx, res)
	}
	return nil
}

// relaySay forwards an in-game chat message to both players of the sender's
// active session.
func (d *Dispatcher) relaySay(ctx context.Context, from Participant, text string) error {
	peer, peerHandle, err := d.engine.Partner(from.Name)
	if err != nil {
		d.reply(ctx, from.Handle, msgSayNoGame)
		return nil
	}
	line := fmt.Sprintf(msgSayRelay, from.Name, text)
	d.reply(ctx, peerHandle, line)
	d.reply(ctx, from.Handle, line)
	d.log.Debug().Str("from", from.Name).Str("to", peer).Msg("say relayed")
	return nil
}

// deliver sends the engine's notification instructions. Runs strictly after
// the engine has returned, so no session lock is held during transport I/O.
func (d *Dispatcher) deliver(ctx context.Context, notes []session.Notification) {
	for _, n := range notes {
		if n.Board {
			d.dropPreviousBoard(ctx, n.Handle)
		}
		ref, err := d.send(ctx, n.Handle, n.Text)
		if err != nil {
			d.log.Warn().Err(err).Str("handle", n.Handle).Msg("notification dropped")
			continue
		}
		if n.Board {
			d.setLastBoard(n.Handle, ref)
		}
		if n.Celebrate && d.gifURL != "" {
			if err := d.transport.SendAnimation(ctx, n.Handle, d.gifURL); err != nil {
				d.log.Warn().Err(err).Str("handle", n.Handle).Msg("celebration animation dropped")
			}
		}
	}
}

// send performs one delivery with a bounded single retry.
func (d *Dispatcher) send(ctx context.Context, handle, text string) (transport.MessageRef, error) {
	ref, err := d.transport.Send(ctx, handle, text)
	if err == nil {
		return ref, nil
	}
	d.log.Warn().Err(err).Str("handle", handle).Msg("send failed, retrying once")
	return d.transport.Send(ctx, handle, text)
}

// reply is a fire-and-forget send to one handle.
func (d *Dispatcher) reply(ctx context.Context, handle, text string) {
	if _, err := d.send(ctx, handle, text); err != nil {
		d.log.Warn().Err(err).Str("handle", handle).Msg("reply dropped")
	}
}

// replyError maps an engine error to its rejection text.
func (d *Dispatcher) replyError(ctx context.Context, from Participant, err error) {
	var text string
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		text = msgNoActiveGame
	case errors.Is(err, session.ErrInvalidGuess):
		text = msgInvalidGuess
	case errors.Is(err, session.ErrAlphabetMismatch):
		text = msgAlphabetMismatch
	case errors.Is(err, session.ErrInvalidWord):
		text = fmt.Sprintf(msgInvalidWord, d.cfg.MinWordLen, d.cfg.MaxWordLen)
	case errors.Is(err, session.ErrMixedAlphabet):
		text = msgMixedAlphabet
	case errors.Is(err, session.ErrDuplicateSession):
		text = msgDuplicateGame
	default:
		d.log.Error().Err(err).Str("name", from.Name).Msg("unexpected engine error")
		text = msgInternalError
	}
	d.reply(ctx, from.Handle, text)
}

// dropPreviousBoard deletes the recipient's previous board message, if any.
// Best-effort: a failure is logged and the new board is sent regardless.
func (d *Dispatcher) dropPreviousBoard(ctx context.Context, handle string) {
	d.mu.Lock()
	ref, ok := d.lastBoard[handle]
	delete(d.lastBoard, handle)
	d.mu.Unlock()
	if !ok {
		return
	}
	if err := d.transport.Delete(ctx, handle, ref); err != nil {
		d.log.Warn().Err(err).Str("handle", handle).Msg("failed to delete previous board")
	}
}

func (d *Dispatcher) setLastBoard(handle string, ref transport.MessageRef) {
	d.mu.Lock()
	d.lastBoard[handle] = ref
	d.mu.Unlock()
}

// recordPartners refreshes both last-partner records in the directory.
func (d *Dispatcher) recordPartners(a, aHandle, b, bHandle string) {
	if err := d.dir.Record(a, aHandle, b); err != nil {
		d.log.Warn().Err(err).Str("name", a).Msg("record last partner")
	}
	if err := d.dir.Record(b, bHandle, a); err != nil {
		d.log.Warn().Err(err).Str("name", b).Msg("record last partner")
	}
}

// recordRound persists a finished round to the match history.
func (d *Dispatcher) recordRound(ctx context.Context, res *session.Result) {
	if d.history == nil {
		return
	}
	s := res.Session
	r := history.Round{
		ID:          s.ID,
		Setter:      s.Setter,
		Guesser:     s.Guesser,
		Language:    string(s.Language),
		WordLen:     len([]rune(s.Secret)),
		Attempts:    res.AttemptNumber,
		MaxAttempts: s.MaxAttempts,
		Won:         res.Outcome == session.OutcomeWin,
		FinishedAt:  time.Now().UTC(),
	}
	if err := d.history.RecordRound(ctx, r); err != nil {
		d.log.Warn().Err(err).Str("round", r.ID).Msg("record round")
	}
}

func (d *Dispatcher) stageOf(name string) stage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stages[name]
}

func (d *Dispatcher) setStage(name string, st stage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st.kind == stageIdle {
		delete(d.stages, name)
		return
	}
	d.stages[name] = st
}
