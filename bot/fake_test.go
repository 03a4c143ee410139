package bot

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"
)

type outMessage struct {
	Ref    MessageRef
	Text   string
	KB     Keyboard
	Edited bool
}

type answered struct {
	ID    string
	Text  string
	Alert bool
}

type fakeGateway struct {
	mu       sync.Mutex
	nextID   int
	messages []outMessage
	photos   [][]byte
	answers  []answered
	files    map[string][]byte
	editErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{files: make(map[string][]byte)}
}

func (g *fakeGateway) Send(ctx context.Context, chat int64, text string, kb Keyboard) (MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	ref := MessageRef{Chat: chat, ID: g.nextID}
	g.messages = append(g.messages, outMessage{Ref: ref, Text: text, KB: kb})
	return ref, nil
}

func (g *fakeGateway) Edit(ctx context.Context, ref MessageRef, text string, kb Keyboard) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.editErr != nil {
		return g.editErr
	}
	g.messages = append(g.messages, outMessage{Ref: ref, Text: text, KB: kb, Edited: true})
	return nil
}

func (g *fakeGateway) SendPhoto(ctx context.Context, chat int64, png []byte, caption string, kb Keyboard) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.photos = append(g.photos, png)
	return nil
}

func (g *fakeGateway) AnswerCallback(ctx context.Context, id, text string, alert bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answers = append(g.answers, answered{ID: id, Text: text, Alert: alert})
	return nil
}

func (g *fakeGateway) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	data, ok := g.files[fileID]
	if !ok {
		return nil, errors.Errorf("unknown file %s", fileID)
	}
	return data, nil
}

func (g *fakeGateway) last() outMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.messages) == 0 {
		return outMessage{}
	}
	return g.messages[len(g.messages)-1]
}

func (g *fakeGateway) lastAnswer() answered {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.answers) == 0 {
		return answered{}
	}
	return g.answers[len(g.answers)-1]
}

func (g *fakeGateway) all() []outMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]outMessage(nil), g.messages...)
}
