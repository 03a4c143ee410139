package bot

import (
	"sync"

	"github.com/eringen/sitebot/i18n"
	"github.com/eringen/sitebot/site"
)

// Prefs remembers each user's chosen language for the life of the process.
type Prefs struct {
	mu    sync.RWMutex
	langs map[site.UserID]i18n.Lang
}

func NewPrefs() *Prefs {
	return &Prefs{langs: make(map[site.UserID]i18n.Lang)}
}

// Lang returns the user's language and whether one was chosen.
func (p *Prefs) Lang(user site.UserID) (i18n.Lang, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	l, ok := p.langs[user]
	if !ok {
		return i18n.Default, false
	}
	return l, true
}

func (p *Prefs) SetLang(user site.UserID, l i18n.Lang) {
	p.mu.Lock()
	p.langs[user] = l
	p.mu.Unlock()
}
