package views

// SiteConfig holds the service-wide values every page needs.
type SiteConfig struct {
	Name        string // service name (default "HTML Host Bot")
	URL         string // public base URL (default "http://localhost:3000")
	Description string
	BotUsername string // Telegram handle without "@", empty when unknown
}

// PageMeta carries per-page metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical
}

// Stats is shown on the landing page.
type Stats struct {
	Sites int
}
