// Package bot routes messaging-platform events to the site registry, the
// pending-action tracker and the upload pipeline, and renders the replies.
package bot

import (
	"context"

	"github.com/eringen/sitebot/site"
)

// MessageRef addresses a message the bot sent earlier.
type MessageRef struct {
	Chat int64
	ID   int
}

// Button is an inline keyboard button. Exactly one of Data and URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

func row(buttons ...Button) []Button { return buttons }

func callback(text, data string) Button { return Button{Text: text, Data: data} }

func link(text, url string) Button { return Button{Text: text, URL: url} }

// Gateway is the messaging platform as seen by the dispatcher. Text is HTML.
type Gateway interface {
	Send(ctx context.Context, chat int64, text string, kb Keyboard) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string, kb Keyboard) error
	SendPhoto(ctx context.Context, chat int64, png []byte, caption string, kb Keyboard) error
	AnswerCallback(ctx context.Context, id, text string, alert bool) error
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}

// Callback is an inline button press. Message is nil when the platform no
// longer reports the originating message.
type Callback struct {
	ID      string
	Data    string
	Message *MessageRef
}

// Document is an uploaded file.
type Document struct {
	FileID string
	Name   string
	Size   int64
}

// Event is one inbound update. Exactly one of Command, Callback and Document
// is set; events with none of them are ignored.
type Event struct {
	User     site.UserID
	Chat     int64
	Command  string
	Callback *Callback
	Document *Document
}
