package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apperrors "github.com/open-builders/secret-santa-bot/internal/common/errors"
	"github.com/open-builders/secret-santa-bot/internal/common/validation"
	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
	"github.com/open-builders/secret-santa-bot/internal/service/distribution"
	"github.com/open-builders/secret-santa-bot/internal/service/notifications"
	"github.com/open-builders/secret-santa-bot/internal/service/telegram"
)

// Replier is the part of the Bot API the handler talks back through.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// Distributor runs a distribution on demand.
type Distributor interface {
	Run(ctx context.Context) (*distribution.Report, error)
}

// UpdateObserver counts handled updates.
type UpdateObserver interface {
	ObserveUpdate(kind string)
}

// Update kinds passed to UpdateObserver.
const (
	KindCommand  = "command"
	KindMessage  = "message"
	KindEdited   = "edited_message"
	KindCallback = "callback_query"
	KindOther    = "other"
)

// Handler routes Telegram updates: the registration wizard, the user
// commands and the manual distribution trigger.
type Handler struct {
	store       participant.Repository
	replier     Replier
	distributor Distributor
	isAdmin     func(userID int64) bool
	drawDate    time.Time
	hasDrawDate bool
	observer    UpdateObserver
	now         func() time.Time
	logger      zerolog.Logger

	sessions *sessions
}

type Option func(*Handler)

// WithDistributor enables /distribute_now.
func WithDistributor(d Distributor) Option { return func(h *Handler) { h.distributor = d } }

// WithAdminCheck restricts /distribute_now.
func WithAdminCheck(fn func(userID int64) bool) Option { return func(h *Handler) { h.isAdmin = fn } }

// WithDrawDate sets the date announced after registration.
func WithDrawDate(t time.Time) Option {
	return func(h *Handler) {
		h.drawDate = t
		h.hasDrawDate = true
	}
}

func WithObserver(o UpdateObserver) Option { return func(h *Handler) { h.observer = o } }

func WithClock(now func() time.Time) Option { return func(h *Handler) { h.now = now } }

func WithLogger(l zerolog.Logger) Option { return func(h *Handler) { h.logger = l } }

func NewHandler(store participant.Repository, replier Replier, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		replier:  replier,
		isAdmin:  func(int64) bool { return true },
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log.Logger.With().Str("component", "bot").Logger(),
		sessions: newSessions(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// HandleUpdate processes one update. Failures are logged and answered in
// the chat; nothing is returned to the poller.
func (h *Handler) HandleUpdate(ctx context.Context, u telegram.Update) {
	kind := h.logUpdate(u)
	if h.observer != nil {
		h.observer.ObserveUpdate(kind)
	}

	switch {
	case u.CallbackQuery != nil:
		h.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.From != nil:
		if kind == KindCommand {
			h.handleCommand(ctx, u.Message)
			return
		}
		h.handleText(ctx, u.Message)
	}
}

func (h *Handler) logUpdate(u telegram.Update) string {
	var userID int64
	if usr := u.EffectiveUser(); usr != nil {
		userID = usr.ID
	}

	switch {
	case u.CallbackQuery != nil:
		h.logger.Info().Int64("user_id", userID).Str("data", u.CallbackQuery.Data).Msg("Received callback query")
		return KindCallback
	case u.Message != nil:
		text := u.Message.Text
		if text == "" {
			text = "<non-text message>"
		}
		h.logger.Info().Int64("user_id", userID).Str("text", text).Msg("Received message")
		if strings.HasPrefix(u.Message.Text, "/") {
			return KindCommand
		}
		return KindMessage
	case u.EditedMessage != nil:
		h.logger.Info().Int64("user_id", userID).Str("text", u.EditedMessage.Text).Msg("Received edited message")
		return KindEdited
	default:
		h.logger.Debug().Int64("update_id", u.UpdateID).Msg("Ignoring update")
		return KindOther
	}
}

// handleCallback answers buttons nothing else claimed.
func (h *Handler) handleCallback(ctx context.Context, cq *telegram.CallbackQuery) {
	if err := h.replier.AnswerCallbackQuery(ctx, cq.ID, msgCallbackAnswered); err != nil {
		h.logger.Warn().Err(err).Str("callback_id", cq.ID).Msg("Failed to answer callback query")
	}
	if cq.Message != nil {
		h.reply(ctx, cq.Message.Chat.ID, callbackEcho(cq.Data))
	}
}

// commandName extracts "start" from "/start@santa_bot arg".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

func (h *Handler) handleCommand(ctx context.Context, m *telegram.Message) {
	switch commandName(m.Text) {
	case "start":
		h.start(ctx, m)
	case "cancel":
		h.cancel(ctx, m)
	case "help":
		h.reply(ctx, m.Chat.ID, msgHelp)
	case "me":
		h.me(ctx, m)
	case "distribute_now":
		h.distributeNow(ctx, m)
	default:
		h.reply(ctx, m.Chat.ID, msgUnknownCommand)
	}
}

func (h *Handler) start(ctx context.Context, m *telegram.Message) {
	userID := m.From.ID
	logger := h.logger.With().Int64("user_id", userID).Str("username", m.From.Username).Logger()
	logger.Info().Msg("User called /start")

	set, err := h.store.LoadParticipants(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load participants")
		h.reply(ctx, m.Chat.ID, msgRegisterFailed)
		return
	}

	if p, ok := set[userID]; ok {
		h.sessions.drop(userID)
		h.reply(ctx, m.Chat.ID, msgAlreadyIn+"\n\n"+notifications.BuildProfileMessage(p))
		logger.Info().Msg("User already registered")
		return
	}

	h.sessions.begin(userID)
	h.reply(ctx, m.Chat.ID, msgWelcome)
	logger.Info().Msg("Registration started")
}

func (h *Handler) cancel(ctx context.Context, m *telegram.Message) {
	if !h.sessions.drop(m.From.ID) {
		h.reply(ctx, m.Chat.ID, msgNothingToCancel)
		return
	}
	h.logger.Info().Int64("user_id", m.From.ID).Msg("Registration cancelled")
	h.reply(ctx, m.Chat.ID, msgCancelled)
}

func (h *Handler) me(ctx context.Context, m *telegram.Message) {
	set, err := h.store.LoadParticipants(ctx)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", m.From.ID).Msg("Failed to load participants")
		h.reply(ctx, m.Chat.ID, msgProfileFailed)
		return
	}
	p, ok := set[m.From.ID]
	if !ok {
		h.reply(ctx, m.Chat.ID, msgNotRegistered)
		return
	}
	h.reply(ctx, m.Chat.ID, notifications.BuildProfileMessage(p))
}

func (h *Handler) distributeNow(ctx context.Context, m *telegram.Message) {
	logger := h.logger.With().Int64("user_id", m.From.ID).Logger()
	if !h.isAdmin(m.From.ID) {
		logger.Warn().Msg("Non-admin tried /distribute_now")
		h.reply(ctx, m.Chat.ID, msgAdminOnly)
		return
	}
	if h.distributor == nil {
		h.reply(ctx, m.Chat.ID, msgNoDistributor)
		return
	}

	logger.Info().Msg("Manual distribution requested")
	report, err := h.distributor.Run(ctx)
	switch {
	case errors.Is(err, distribution.ErrRunInProgress):
		h.reply(ctx, m.Chat.ID, msgRunInProgress)
	case err != nil:
		logger.Error().Err(err).Msg("Manual distribution failed")
		h.reply(ctx, m.Chat.ID, msgRunFailed)
	case report.Empty():
		h.reply(ctx, m.Chat.ID, msgNotEnough)
	default:
		h.reply(ctx, m.Chat.ID, distributedMessage(len(report.Pairs), report.Fallback))
	}
}

type wizardStep struct {
	field    string
	validate func(string) error
	repeat   string
	next     string
}

var wizardSteps = map[step]wizardStep{
	stepName:   {"full_name", validation.ValidateFullName, msgAskName, msgAskGroup},
	stepGroup:  {"group", validation.ValidateGroup, msgRepeatGroup, msgAskRoom},
	stepRoom:   {"room", validation.ValidateRoom, msgRepeatRoom, msgAskWishes},
	stepWishes: {"wishes", validation.ValidateWishes, "", ""},
}

// handleText advances the registration wizard. Text outside a wizard is
// only logged.
func (h *Handler) handleText(ctx context.Context, m *telegram.Message) {
	userID := m.From.ID
	d, ok := h.sessions.get(userID)
	if !ok {
		return
	}
	ws := wizardSteps[d.step]

	text := strings.TrimSpace(m.Text)
	if text == "" && d.step != stepWishes {
		h.reply(ctx, m.Chat.ID, ws.repeat)
		return
	}
	if err := ws.validate(text); err != nil {
		h.reply(ctx, m.Chat.ID, invalidInput(err))
		return
	}
	h.logger.Info().Int64("user_id", userID).Str(ws.field, text).Msg("Registration field entered")

	switch d.step {
	case stepName:
		d.fullName = text
	case stepGroup:
		d.group = text
	case stepRoom:
		d.room = text
	case stepWishes:
		h.register(ctx, m, d, text)
		return
	}
	d.step++
	h.sessions.put(userID, d)
	h.reply(ctx, m.Chat.ID, ws.next)
}

func invalidInput(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return "Please try again: " + appErr.Message + "."
	}
	return "Please try again."
}

func (h *Handler) register(ctx context.Context, m *telegram.Message, d draft, wishes string) {
	userID := m.From.ID
	h.sessions.drop(userID)
	logger := h.logger.With().Int64("user_id", userID).Logger()

	p := &participant.Participant{
		ID:           userID,
		Username:     m.From.Username,
		FirstName:    m.From.FirstName,
		LastName:     m.From.LastName,
		FullName:     d.fullName,
		Group:        d.group,
		Room:         d.room,
		Wishes:       wishes,
		RegisteredAt: h.now(),
	}

	set, err := h.store.LoadParticipants(ctx)
	if err == nil {
		set[userID] = p
		err = h.store.SaveParticipants(ctx, set)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to save registration")
		h.reply(ctx, m.Chat.ID, msgRegisterFailed)
		return
	}

	logger.Info().
		Str("username", p.Username).
		Str("full_name", p.FullName).
		Str("group", p.Group).
		Str("room", p.Room).
		Str("wishes", p.Wishes).
		Msg("User registered")
	h.reply(ctx, m.Chat.ID, registeredMessage(h.drawDate, h.hasDrawDate))
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.replier.SendMessage(ctx, chatID, text); err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

// Commands is the menu registered with SetMyCommands.
func Commands() []telegram.BotCommand {
	return []telegram.BotCommand{
		{Command: "start", Description: "Register for Secret Santa"},
		{Command: "me", Description: "Show your registration and recipient"},
		{Command: "cancel", Description: "Cancel the registration"},
		{Command: "help", Description: "List commands"},
	}
}
