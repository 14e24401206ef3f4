// Package chat drives a signed-in session's conversation: it owns appending
// to the transcript and calling the completion service.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ai-assistant/internal/auth"
	"ai-assistant/internal/history"
	"ai-assistant/internal/llm"
	"ai-assistant/internal/storage"
)

const DefaultTimeout = 60 * time.Second

var (
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrBusy is returned instead of queuing a second message while one is
	// still waiting for the service.
	ErrBusy = errors.New("a request is already in progress")
	// ErrTranscriptReset means the conversation was cleared or the user
	// logged out while the reply was pending; the reply is dropped.
	ErrTranscriptReset = errors.New("conversation was reset while waiting for a reply")
)

type Reply struct {
	Content     string
	Model       string
	TotalTokens int
	// Skipped is set when the message was blank and nothing was sent.
	Skipped bool
}

type Options struct {
	Params       llm.Params
	SystemPrompt string
	Timeout      time.Duration
	Recorder     storage.Recorder
	Logger       *zap.Logger
}

type Orchestrator struct {
	client       llm.Client
	params       llm.Params
	systemPrompt string
	timeout      time.Duration
	recorder     storage.Recorder
	log          *zap.Logger
	now          func() time.Time
	inflight     sync.Mutex
}

func New(client llm.Client, opts Options) *Orchestrator {
	o := &Orchestrator{
		client:       client,
		params:       opts.Params,
		systemPrompt: strings.TrimSpace(opts.SystemPrompt),
		timeout:      opts.Timeout,
		recorder:     opts.Recorder,
		log:          opts.Logger,
		now:          time.Now,
	}
	if o.params == (llm.Params{}) {
		o.params = llm.DefaultParams
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}

// SubmitUserMessage appends text to the session transcript and asks the
// service for a reply. Blank text is ignored. On failure only the user
// message stays in the transcript and the error is a *llm.ServiceError.
func (o *Orchestrator) SubmitUserMessage(ctx context.Context, s *auth.Session, text string) (Reply, error) {
	user, ok := s.CurrentUser()
	if !ok {
		return Reply{}, ErrNotAuthenticated
	}
	if strings.TrimSpace(text) == "" {
		return Reply{Skipped: true}, nil
	}
	if !o.inflight.TryLock() {
		return Reply{}, ErrBusy
	}
	defer o.inflight.Unlock()

	tr := s.Transcript()
	tr.AppendUser(text)
	o.log.Debug("user message",
		zap.String("session", s.ID()),
		zap.String("user", user),
		zap.Int("transcript_len", tr.Len()))

	resp, err := o.RequestCompletion(ctx, tr)
	o.record(s.ID(), user, text, resp, err)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: resp.Content, Model: resp.Model, TotalTokens: resp.TotalTokens}, nil
}

// RequestCompletion sends the whole transcript, preceded by the system prompt
// if one is configured, and appends the trimmed reply on success. If tr is
// reset before the reply arrives the reply is dropped with ErrTranscriptReset.
// Nothing is retried.
func (o *Orchestrator) RequestCompletion(ctx context.Context, tr *history.Transcript) (llm.Response, error) {
	gen := tr.Generation()
	msgs := tr.Messages()
	if o.systemPrompt != "" {
		msgs = append([]llm.Message{{Role: llm.RoleSystem, Content: o.systemPrompt}}, msgs...)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.Generate(ctx, msgs, o.params)
	if err != nil {
		se := llm.Classify(err)
		o.log.Warn("completion failed",
			zap.String("kind", string(se.Kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(se))
		return llm.Response{}, se
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		se := &llm.ServiceError{Kind: llm.KindProvider, Message: "empty reply"}
		o.log.Warn("completion failed", zap.String("kind", string(se.Kind)), zap.Error(se))
		return llm.Response{}, se
	}
	resp.Content = content
	if !tr.AppendAssistantAt(gen, content) {
		o.log.Info("reply dropped, transcript was reset", zap.String("model", resp.Model))
		return llm.Response{}, ErrTranscriptReset
	}

	o.log.Info("completion",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("completion_tokens", resp.CompletionTokens),
		zap.Int("total_tokens", resp.TotalTokens),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// ClearTranscript empties the conversation; the session stays signed in.
func (o *Orchestrator) ClearTranscript(s *auth.Session) {
	s.Transcript().Reset()
	o.log.Debug("transcript cleared", zap.String("session", s.ID()))
}

func (o *Orchestrator) record(sessionID, user, text string, resp llm.Response, err error) {
	if o.recorder == nil {
		return
	}
	ev := storage.Event{
		Timestamp:   o.now().UTC(),
		SessionID:   sessionID,
		Username:    user,
		UserMessage: text,
	}
	if err != nil {
		ev.ErrorKind = string(llm.KindOf(err))
	} else {
		ev.AssistantResponse = resp.Content
		ev.Model = resp.Model
		ev.TotalTokens = resp.TotalTokens
	}
	if rerr := o.recorder.AppendInteraction(ev); rerr != nil {
		o.log.Warn("failed to record interaction", zap.Error(rerr))
	}
}
