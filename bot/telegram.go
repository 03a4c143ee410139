package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/sitebot/site"
	"github.com/eringen/sitebot/upload"
)

// Handler consumes events produced by a gateway's receive loop.
type Handler func(ctx context.Context, ev Event) error

// Telegram is the Bot API gateway.
type Telegram struct {
	api          *tgbotapi.BotAPI
	client       *http.Client
	fileEndpoint string
	pollTimeout  int
}

// TelegramOption configures a Telegram gateway.
type TelegramOption func(*telegramConfig)

type telegramConfig struct {
	apiEndpoint  string
	fileEndpoint string
	client       *http.Client
}

// WithEndpoints points the gateway at another Bot API server. Both are
// format strings taking the token and the method or file path.
func WithEndpoints(api, file string) TelegramOption {
	return func(c *telegramConfig) {
		c.apiEndpoint = api
		c.fileEndpoint = file
	}
}

func WithHTTPClient(client *http.Client) TelegramOption {
	return func(c *telegramConfig) {
		c.client = client
	}
}

// NewTelegram authenticates with token and returns a ready gateway.
func NewTelegram(token string, opts ...TelegramOption) (*Telegram, error) {
	cfg := telegramConfig{
		apiEndpoint:  tgbotapi.APIEndpoint,
		fileEndpoint: tgbotapi.FileEndpoint,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, cfg.apiEndpoint, cfg.client)
	if err != nil {
		return nil, site.Wrap(site.ErrUpstream, errors.Errorf("connecting to telegram: %w", err))
	}
	return &Telegram{
		api:          api,
		client:       cfg.client,
		fileEndpoint: cfg.fileEndpoint,
		pollTimeout:  30,
	}, nil
}

// Username is the bot's handle.
func (t *Telegram) Username() string {
	return t.api.Self.UserName
}

func markup(kb Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, r := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (t *Telegram) Send(ctx context.Context, chat int64, text string, kb Keyboard) (MessageRef, error) {
	msg := tgbotapi.NewMessage(chat, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if len(kb) > 0 {
		msg.ReplyMarkup = markup(kb)
	}
	sent, err := t.api.Send(msg)
	if err != nil {
		return MessageRef{}, errors.Errorf("sending message: %w", err)
	}
	return MessageRef{Chat: chat, ID: sent.MessageID}, nil
}

// Edit treats "message is not modified" as success.
func (t *Telegram) Edit(ctx context.Context, ref MessageRef, text string, kb Keyboard) error {
	edit := tgbotapi.NewEditMessageText(ref.Chat, ref.ID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if len(kb) > 0 {
		m := markup(kb)
		edit.ReplyMarkup = &m
	}
	if _, err := t.api.Request(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return errors.Errorf("editing message %d: %w", ref.ID, err)
	}
	return nil
}

func (t *Telegram) SendPhoto(ctx context.Context, chat int64, png []byte, caption string, kb Keyboard) error {
	photo := tgbotapi.NewPhoto(chat, tgbotapi.FileBytes{Name: "qr.png", Bytes: png})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if len(kb) > 0 {
		photo.ReplyMarkup = markup(kb)
	}
	if _, err := t.api.Send(photo); err != nil {
		return errors.Errorf("sending photo: %w", err)
	}
	return nil
}

func (t *Telegram) AnswerCallback(ctx context.Context, id, text string, alert bool) error {
	cb := tgbotapi.NewCallback(id, text)
	cb.ShowAlert = alert
	if _, err := t.api.Request(cb); err != nil {
		return errors.Errorf("answering callback: %w", err)
	}
	return nil
}

// FetchFile downloads an uploaded document, reading at most one byte past
// the upload limit so oversize files are still detected.
func (t *Telegram) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, errors.Errorf("resolving file %s: %w", fileID, err)
	}
	link := fmt.Sprintf(t.fileEndpoint, t.api.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, errors.Errorf("creating download request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Errorf("downloading file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("downloading file %s: status %d", fileID, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, upload.MaxFileSize+1))
	if err != nil {
		return nil, errors.Errorf("reading file %s: %w", fileID, err)
	}
	return body, nil
}

func eventFromUpdate(u tgbotapi.Update) (Event, bool) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		q := u.CallbackQuery
		ev := Event{
			User:     site.UserID(q.From.ID),
			Chat:     q.From.ID,
			Callback: &Callback{ID: q.ID, Data: q.Data},
		}
		if q.Message != nil && q.Message.Chat != nil {
			ev.Chat = q.Message.Chat.ID
			ev.Callback.Message = &MessageRef{Chat: q.Message.Chat.ID, ID: q.Message.MessageID}
		}
		return ev, true
	case u.Message != nil && u.Message.From != nil && u.Message.Chat != nil:
		m := u.Message
		ev := Event{User: site.UserID(m.From.ID), Chat: m.Chat.ID}
		switch {
		case m.Document != nil:
			ev.Document = &Document{
				FileID: m.Document.FileID,
				Name:   m.Document.FileName,
				Size:   int64(m.Document.FileSize),
			}
		case m.IsCommand():
			ev.Command = m.Command()
		default:
			return Event{}, false
		}
		return ev, true
	}
	return Event{}, false
}

// Run long-polls for updates and hands them to h on at most workers
// goroutines until ctx is cancelled. Handler errors are logged.
func (t *Telegram) Run(ctx context.Context, h Handler, workers int) error {
	logger := zerolog.Ctx(ctx)
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = t.pollTimeout
	updates := t.api.GetUpdatesChan(cfg)

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	logger.Info().Str("bot", t.Username()).Int("workers", workers).Msg("receiving telegram updates")

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return g.Wait()
		case u, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			ev, ok := eventFromUpdate(u)
			if !ok {
				continue
			}
			g.Go(func() error {
				if err := h(ctx, ev); err != nil {
					logger.Error().Err(err).Int64("user", int64(ev.User)).Msg("handling update")
				}
				return nil
			})
		}
	}
}
