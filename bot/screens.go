package bot

import (
	"fmt"
	"strings"

	"github.com/eringen/sitebot/i18n"
	"github.com/eringen/sitebot/site"
)

const (
	cbLangPrefix    = "lang_"
	cbChangeLang    = "change_lang"
	cbBackStart     = "back_start"
	cbMySites       = "my_sites"
	cbUpload        = "upload"
	cbUpdatePrefix  = "update_"
	cbDeletePrefix  = "del_"
	cbConfirmPrefix = "del_confirm_"
	cbCancelPrefix  = "del_cancel_"
)

func langMenu() Keyboard {
	kb := make(Keyboard, 0, len(i18n.Languages))
	for _, l := range i18n.Languages {
		kb = append(kb, row(callback(i18n.Name(l), cbLangPrefix+string(l))))
	}
	return kb
}

func mainMenu(lang i18n.Lang) Keyboard {
	return Keyboard{
		row(callback(i18n.T(lang, "my_sites"), cbMySites)),
		row(callback(i18n.T(lang, "language"), cbChangeLang)),
	}
}

func chooseLangMenu(lang i18n.Lang) Keyboard {
	return Keyboard{row(callback(i18n.T(lang, "language"), cbChangeLang))}
}

func backToSites(lang i18n.Lang) Keyboard {
	return Keyboard{row(callback(i18n.T(lang, "back"), cbMySites))}
}

func sitesAndStart(lang i18n.Lang) Keyboard {
	return Keyboard{row(
		callback(i18n.T(lang, "my_sites"), cbMySites),
		callback(i18n.T(lang, "back"), cbBackStart),
	)}
}

func noSitesMenu(lang i18n.Lang) Keyboard {
	return Keyboard{
		row(callback(i18n.T(lang, "new_upload"), cbUpload)),
		row(callback(i18n.T(lang, "back"), cbBackStart)),
	}
}

func uploadMenu(lang i18n.Lang) Keyboard {
	return Keyboard{row(callback(i18n.T(lang, "new_upload"), cbUpload))}
}

func sitesMenu(lang i18n.Lang, sites []site.Site, baseURL string) Keyboard {
	kb := make(Keyboard, 0, len(sites)+1)
	for _, s := range sites {
		kb = append(kb, row(
			link(i18n.T(lang, "view"), s.URL(baseURL)),
			callback(i18n.T(lang, "delete"), cbDeletePrefix+s.ID),
			callback(i18n.T(lang, "update_prompt"), cbUpdatePrefix+s.ID),
		))
	}
	return append(kb, row(
		callback(i18n.T(lang, "new_upload"), cbUpload),
		callback(i18n.T(lang, "back"), cbBackStart),
	))
}

func sitesText(lang i18n.Lang, sites []site.Site) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", i18n.T(lang, "my_sites"))
	for i, s := range sites {
		fmt.Fprintf(&b, "%d. <code>%s</code> — %s — <i>%s</i>\n",
			i+1, s.ID, s.SizeLabel(), s.UpdatedAt.Format("2006-01-02"))
	}
	return b.String()
}

func confirmMenu(lang i18n.Lang, id string) Keyboard {
	return Keyboard{row(
		callback(i18n.T(lang, "yes"), cbConfirmPrefix+id),
		callback(i18n.T(lang, "cancel"), cbCancelPrefix+id),
	)}
}

func uploadPrompt(lang i18n.Lang) string {
	return fmt.Sprintf("<b>%s</b>\n\n<i>%s</i>", i18n.T(lang, "upload_new"), i18n.T(lang, "file_only_html"))
}

func updatePrompt(lang i18n.Lang, id string) string {
	return fmt.Sprintf("<b>%s: <code>%s</code></b>\n\n<i>%s</i>", i18n.T(lang, "update_prompt"), id, i18n.T(lang, "file_only_html"))
}

func createdText(lang i18n.Lang, s site.Site, url string) string {
	return fmt.Sprintf("%s\n\n📝 <b>ID:</b> <code>%s</code>\n📦 <b>%s:</b> %s\n\n🔗 <a href=\"%s\"><b>%s</b></a>",
		i18n.T(lang, "success"), s.ID, i18n.T(lang, "size"), s.SizeLabel(), url, i18n.T(lang, "view"))
}

func createdMenu(lang i18n.Lang, url string) Keyboard {
	return Keyboard{
		row(link(i18n.T(lang, "view"), url)),
		row(callback(i18n.T(lang, "my_sites"), cbMySites)),
		row(callback(i18n.T(lang, "new_upload"), cbUpload)),
	}
}

func updatedText(lang i18n.Lang, s site.Site, url string) string {
	return fmt.Sprintf("%s\n\n📝 <b>ID:</b> <code>%s</code>\n📦 <b>%s:</b> %s\n\n🔗 <a href=\"%s\">%s</a>",
		i18n.T(lang, "updated"), s.ID, i18n.T(lang, "size"), s.SizeLabel(), url, i18n.T(lang, "view"))
}

func updatedMenu(lang i18n.Lang, url string) Keyboard {
	return Keyboard{
		row(link(i18n.T(lang, "view"), url)),
		row(callback(i18n.T(lang, "my_sites"), cbMySites)),
	}
}
