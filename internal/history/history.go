package history

import (
	"sync"

	"ai-assistant/internal/llm"
)

// Transcript is the ordered message list of one session. Reads return copies
// so callers cannot reorder or rewrite what gets replayed to the model.
type Transcript struct {
	mu   sync.RWMutex
	msgs []llm.Message
	// gen counts resets.
	gen  uint64
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = nil
	t.gen++
}

// Generation changes every time the transcript is reset.
func (t *Transcript) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen
}

// AppendAssistantAt appends the reply only if no reset happened since gen was
// read, and reports whether it did.
func (t *Transcript) AppendAssistantAt(gen uint64, content string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return false
	}
	t.msgs = append(t.msgs, llm.Message{Role: llm.RoleAssistant, Content: content})
	return true
}

func (t *Transcript) AppendUser(content string) {
	t.append(llm.Message{Role: llm.RoleUser, Content: content})
}

func (t *Transcript) AppendAssistant(content string) {
	t.append(llm.Message{Role: llm.RoleAssistant, Content: content})
}

func (t *Transcript) append(msg llm.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, msg)
}

func (t *Transcript) Messages() []llm.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]llm.Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}
