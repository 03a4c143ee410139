package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/activity"
	"github.com/eringen/sitebot/i18n"
	"github.com/eringen/sitebot/pending"
	"github.com/eringen/sitebot/site"
	"github.com/eringen/sitebot/upload"
)

// Sites is the registry surface the dispatcher needs.
type Sites interface {
	upload.Sites
	Authorize(ctx context.Context, actor site.UserID, id string) (site.Site, error)
	ListByOwner(ctx context.Context, owner site.UserID) ([]site.Site, error)
	Delete(ctx context.Context, owner site.UserID, id string) error
}

// Dispatcher handles events. Handle may be called concurrently; events of the
// same user are serialized on the tracker's per-user lock.
type Dispatcher struct {
	gw       Gateway
	sites    Sites
	tracker  *pending.Tracker
	pipeline *upload.Pipeline
	prefs    *Prefs
	activity *activity.Log
	baseURL  string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithActivity(l *activity.Log) Option {
	return func(d *Dispatcher) {
		d.activity = l
	}
}

func WithPrefs(p *Prefs) Option {
	return func(d *Dispatcher) {
		d.prefs = p
	}
}

// WithBaseURL sets the public address used for view buttons in listings.
func WithBaseURL(u string) Option {
	return func(d *Dispatcher) {
		d.baseURL = u
	}
}

func NewDispatcher(gw Gateway, sites Sites, tracker *pending.Tracker, pipeline *upload.Pipeline, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gw:       gw,
		sites:    sites,
		tracker:  tracker,
		pipeline: pipeline,
		prefs:    NewPrefs(),
		activity: activity.Discard(),
		baseURL:  "http://localhost:3000",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes one event. Errors returned are gateway or storage
// failures; outcomes the user caused are answered in chat and return nil.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	logger := zerolog.Ctx(ctx).With().
		Str("event", uuid.NewString()).
		Int64("user", int64(ev.User)).
		Logger()
	ctx = logger.WithContext(ctx)

	unlock := d.tracker.Lock(ev.User)
	defer unlock()

	switch {
	case ev.Callback != nil:
		return d.onCallback(ctx, ev)
	case ev.Document != nil:
		return d.onDocument(ctx, ev)
	case ev.Command != "":
		return d.onCommand(ctx, ev)
	}
	logger.Debug().Msg("ignoring event without command, callback or document")
	return nil
}

func (d *Dispatcher) onCommand(ctx context.Context, ev Event) error {
	switch ev.Command {
	case "start":
		return d.start(ctx, ev)
	case "help":
		return d.help(ctx, ev)
	case "my":
		return d.showSites(ctx, ev)
	}
	zerolog.Ctx(ctx).Debug().Str("command", ev.Command).Msg("unknown command")
	return nil
}

func (d *Dispatcher) onCallback(ctx context.Context, ev Event) error {
	data := ev.Callback.Data
	zerolog.Ctx(ctx).Debug().Str("data", data).Msg("callback")

	switch {
	case strings.HasPrefix(data, cbLangPrefix):
		return d.setLang(ctx, ev, strings.TrimPrefix(data, cbLangPrefix))
	case data == cbChangeLang:
		d.answer(ctx, ev, "", false)
		lang, _ := d.prefs.Lang(ev.User)
		return d.editOrReply(ctx, ev, i18n.T(lang, "choose_lang"), langMenu())
	case data == cbBackStart:
		d.answer(ctx, ev, "", false)
		lang, _ := d.prefs.Lang(ev.User)
		return d.editOrReply(ctx, ev, i18n.T(lang, "welcome"), mainMenu(lang))
	case data == cbMySites:
		d.answer(ctx, ev, "", false)
		return d.showSites(ctx, ev)
	case data == cbUpload:
		d.answer(ctx, ev, "", false)
		return d.promptUpload(ctx, ev)
	case strings.HasPrefix(data, cbUpdatePrefix):
		d.answer(ctx, ev, "", false)
		return d.promptUpdate(ctx, ev, strings.TrimPrefix(data, cbUpdatePrefix))
	case strings.HasPrefix(data, cbConfirmPrefix):
		return d.confirmDelete(ctx, ev, strings.TrimPrefix(data, cbConfirmPrefix))
	case strings.HasPrefix(data, cbCancelPrefix):
		return d.cancelDelete(ctx, ev, strings.TrimPrefix(data, cbCancelPrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return d.requestDelete(ctx, ev, strings.TrimPrefix(data, cbDeletePrefix))
	}
	d.answer(ctx, ev, "", false)
	return nil
}

func (d *Dispatcher) start(ctx context.Context, ev Event) error {
	lang, ok := d.prefs.Lang(ev.User)
	chosen := "none"
	if ok {
		chosen = string(lang)
	}
	d.activity.Info(activity.User(ev.User), "start", "lang="+chosen)
	if !ok {
		return d.editOrReply(ctx, ev, i18n.T(lang, "choose_lang"), langMenu())
	}
	return d.editOrReply(ctx, ev, i18n.T(lang, "welcome"), mainMenu(lang))
}

func (d *Dispatcher) setLang(ctx context.Context, ev Event, code string) error {
	lang, ok := i18n.Parse(code)
	d.answer(ctx, ev, "", false)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("lang", code).Msg("unsupported language")
		return nil
	}
	d.prefs.SetLang(ev.User, lang)
	d.activity.Info(activity.User(ev.User), "lang_set", string(lang))
	return d.editOrReply(ctx, ev, i18n.T(lang, "welcome"), mainMenu(lang))
}

func (d *Dispatcher) help(ctx context.Context, ev Event) error {
	lang, ok := d.prefs.Lang(ev.User)
	if !ok {
		return d.send(ctx, ev.Chat, i18n.T(lang, "choose_lang"), chooseLangMenu(lang))
	}
	d.activity.Info(activity.User(ev.User), "help", "")
	return d.send(ctx, ev.Chat, i18n.T(lang, "help"), sitesAndStart(lang))
}

func (d *Dispatcher) showSites(ctx context.Context, ev Event) error {
	lang, _ := d.prefs.Lang(ev.User)
	sites, err := d.sites.ListByOwner(ctx, ev.User)
	if err != nil {
		return err
	}
	d.activity.Info(activity.User(ev.User), "list_sites", fmt.Sprintf("count=%d", len(sites)))
	if len(sites) == 0 {
		return d.editOrReply(ctx, ev, i18n.T(lang, "no_sites"), noSitesMenu(lang))
	}
	return d.editOrReply(ctx, ev, sitesText(lang, sites), sitesMenu(lang, sites, d.baseURL))
}

func (d *Dispatcher) promptUpload(ctx context.Context, ev Event) error {
	lang, _ := d.prefs.Lang(ev.User)
	d.tracker.Set(ev.User, pending.Create())
	d.activity.Info(activity.User(ev.User), "awaiting_upload", "create")
	return d.editOrReply(ctx, ev, uploadPrompt(lang), backToSites(lang))
}

func (d *Dispatcher) promptUpdate(ctx context.Context, ev Event, id string) error {
	lang, _ := d.prefs.Lang(ev.User)
	if _, err := d.sites.Authorize(ctx, ev.User, id); err != nil {
		key, known := messageKey(err)
		if !known {
			return err
		}
		d.activity.Warn(activity.User(ev.User), "update_denied", fmt.Sprintf("id=%s reason=%s", id, key))
		return d.editOrReply(ctx, ev, i18n.T(lang, key), backToSites(lang))
	}
	d.tracker.Set(ev.User, pending.Update(id))
	d.activity.Info(activity.User(ev.User), "awaiting_upload", "update:"+id)
	return d.editOrReply(ctx, ev, updatePrompt(lang, id), backToSites(lang))
}

func (d *Dispatcher) requestDelete(ctx context.Context, ev Event, id string) error {
	lang, _ := d.prefs.Lang(ev.User)
	if _, err := d.sites.Authorize(ctx, ev.User, id); err != nil {
		return d.deny(ctx, ev, lang, "delete_denied", id, err)
	}
	d.tracker.Set(ev.User, pending.DeleteConfirm(id))
	d.answer(ctx, ev, "", false)
	d.activity.Info(activity.User(ev.User), "delete_request", "id="+id)
	return d.editOrReply(ctx, ev,
		fmt.Sprintf("%s\n\nID: <code>%s</code>", i18n.T(lang, "confirm_delete"), id),
		confirmMenu(lang, id))
}

// confirmDelete only acts on a confirmation the user was asked for. Without
// one it reports why the site cannot be deleted, or that nothing is pending.
func (d *Dispatcher) confirmDelete(ctx context.Context, ev Event, id string) error {
	lang, _ := d.prefs.Lang(ev.User)
	action, ok := d.tracker.Get(ev.User)
	if !ok || action.Kind != pending.KindDeleteConfirm || action.SiteID != id {
		err := errors.WithStack(site.ErrNoPendingAction)
		if _, aerr := d.sites.Authorize(ctx, ev.User, id); aerr != nil {
			err = aerr
		}
		return d.deny(ctx, ev, lang, "delete_failed", id, err)
	}
	d.tracker.Clear(ev.User)

	if err := d.sites.Delete(ctx, ev.User, id); err != nil {
		return d.deny(ctx, ev, lang, "delete_failed", id, err)
	}
	d.answer(ctx, ev, i18n.T(lang, "deleted"), false)
	d.activity.Info(activity.User(ev.User), "delete_site", "id="+id)
	return d.editOrReply(ctx, ev,
		fmt.Sprintf("%s\n\nID: <code>%s</code>", i18n.T(lang, "deleted"), id),
		sitesAndStart(lang))
}

func (d *Dispatcher) cancelDelete(ctx context.Context, ev Event, id string) error {
	lang, _ := d.prefs.Lang(ev.User)
	if action, ok := d.tracker.Get(ev.User); ok && action.Kind == pending.KindDeleteConfirm && action.SiteID == id {
		d.tracker.Clear(ev.User)
	}
	d.answer(ctx, ev, "", false)
	d.activity.Info(activity.User(ev.User), "delete_cancel", "id="+id)
	return d.editOrReply(ctx, ev, i18n.T(lang, "cancelled"),
		Keyboard{row(callback(i18n.T(lang, "my_sites"), cbMySites))})
}

// deny answers a callback with an alert explaining err. Unexpected errors are
// returned after the user has been told.
func (d *Dispatcher) deny(ctx context.Context, ev Event, lang i18n.Lang, action, id string, err error) error {
	key, known := messageKey(err)
	d.answer(ctx, ev, i18n.T(lang, key), true)
	detail := fmt.Sprintf("id=%s reason=%s", id, key)
	if !known {
		d.activity.Error(activity.User(ev.User), action, detail+" err="+err.Error())
		return err
	}
	d.activity.Warn(activity.User(ev.User), action, detail)
	return nil
}

func (d *Dispatcher) onDocument(ctx context.Context, ev Event) error {
	lang, ok := d.prefs.Lang(ev.User)
	if !ok {
		return d.send(ctx, ev.Chat, i18n.T(lang, "choose_lang"), chooseLangMenu(lang))
	}
	doc := ev.Document
	var loading *MessageRef
	f := upload.File{
		Name: doc.Name,
		Size: doc.Size,
		Fetch: func(ctx context.Context) ([]byte, error) {
			return d.gw.FetchFile(ctx, doc.FileID)
		},
		OnAccepted: func(ctx context.Context) {
			ref, err := d.gw.Send(ctx, ev.Chat, i18n.T(lang, "file_received"), nil)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("sending progress message")
				return
			}
			loading = &ref
		},
	}

	res, err := d.pipeline.Handle(ctx, ev.User, f)
	if err != nil {
		return d.uploadFailed(ctx, ev, lang, loading, doc.Name, err)
	}

	actor := activity.User(ev.User)
	detail := fmt.Sprintf("id=%s sizeKB=%.2f", res.Site.ID, res.Site.SizeKB())
	var text string
	var kb Keyboard
	switch res.Outcome {
	case upload.Updated:
		text, kb = updatedText(lang, res.Site, res.URL), updatedMenu(lang, res.URL)
		d.activity.Info(actor, "update_site", detail)
	default:
		text, kb = createdText(lang, res.Site, res.URL), createdMenu(lang, res.URL)
		d.activity.Info(actor, "create_site", detail)
	}
	if err := d.replace(ctx, ev.Chat, loading, text, kb); err != nil {
		return err
	}
	if res.QR != nil {
		err := d.gw.SendPhoto(ctx, ev.Chat, res.QR, i18n.T(lang, "qr_caption"),
			Keyboard{row(link(i18n.T(lang, "view"), res.URL))})
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("id", res.Site.ID).Msg("sending qr code")
		}
	}
	return nil
}

func (d *Dispatcher) uploadFailed(ctx context.Context, ev Event, lang i18n.Lang, loading *MessageRef, name string, err error) error {
	actor := activity.User(ev.User)
	if errors.Is(err, site.ErrNoPendingAction) {
		d.activity.Info(actor, "upload_unrequested", "fileName="+name)
		return d.send(ctx, ev.Chat, fmt.Sprintf("<b>%s</b>", i18n.T(lang, "press_upload")), uploadMenu(lang))
	}

	var text string
	key, known := messageKey(err)
	switch {
	case key == "not_html":
		text = fmt.Sprintf("<b>%s:</b> %s\n\n%s", i18n.T(lang, "error"), i18n.T(lang, key), i18n.T(lang, "file_only_html"))
	case known:
		text = fmt.Sprintf("<b>%s</b>", i18n.T(lang, key))
	default:
		text = fmt.Sprintf("<b>%s</b>", i18n.T(lang, "processing_error"))
	}

	if known {
		d.activity.Warn(actor, "upload_failed_"+key, "fileName="+name)
	} else {
		zerolog.Ctx(ctx).Error().Err(err).Str("file", name).Msg("processing upload")
		d.activity.Error(actor, "upload_error", err.Error())
	}
	return d.replace(ctx, ev.Chat, loading, text, backToSites(lang))
}

// messageKey maps an error to the catalogue key shown to the user. known is
// false for failures the user did not cause.
func messageKey(err error) (key string, known bool) {
	switch {
	case errors.Is(err, site.ErrNotFound):
		return "site_not_found", true
	case errors.Is(err, site.ErrForbidden):
		return "not_your_site", true
	case errors.Is(err, site.ErrNoPendingAction):
		return "no_pending", true
	case errors.Is(err, site.ErrValidation):
		reason, _ := site.Reason(err)
		switch reason {
		case site.ReasonTooLarge:
			return "too_large", true
		case site.ReasonContent:
			return "not_html", true
		default:
			return "file_only_html", true
		}
	}
	return "error", false
}

func (d *Dispatcher) answer(ctx context.Context, ev Event, text string, alert bool) {
	if ev.Callback == nil {
		return
	}
	if err := d.gw.AnswerCallback(ctx, ev.Callback.ID, text, alert); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("answering callback")
	}
}

func (d *Dispatcher) send(ctx context.Context, chat int64, text string, kb Keyboard) error {
	if _, err := d.gw.Send(ctx, chat, text, kb); err != nil {
		return site.Wrap(site.ErrUpstream, err)
	}
	return nil
}

// replace edits ref when set and falls back to a new message if editing fails.
func (d *Dispatcher) replace(ctx context.Context, chat int64, ref *MessageRef, text string, kb Keyboard) error {
	if ref != nil {
		err := d.gw.Edit(ctx, *ref, text, kb)
		if err == nil {
			return nil
		}
		zerolog.Ctx(ctx).Debug().Err(err).Int("message", ref.ID).Msg("edit failed, sending new message")
	}
	return d.send(ctx, chat, text, kb)
}

// editOrReply edits the message a button was pressed on, or replies.
func (d *Dispatcher) editOrReply(ctx context.Context, ev Event, text string, kb Keyboard) error {
	var ref *MessageRef
	if ev.Callback != nil {
		ref = ev.Callback.Message
	}
	return d.replace(ctx, ev.Chat, ref, text, kb)
}
