package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"ai-assistant/internal/auth"
	"ai-assistant/internal/chat"
	"ai-assistant/internal/console"
	"ai-assistant/internal/credentials"
	"ai-assistant/internal/llm"
	"ai-assistant/internal/secrets"
	"ai-assistant/internal/storage"
)

func runChat(ctx context.Context) error {
	sec, err := secrets.Load(cfg.SecretsFilePath)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, sec)
	if err != nil {
		return err
	}
	authSvc := auth.New(store, logger.Named("auth"))

	// The API key is settled before the first prompt; without it chat is
	// disabled but sign-in still works.
	orchestrator, chatErr := newOrchestrator(sec)
	if chatErr != nil {
		logger.Error("chat unavailable", zap.Error(chatErr))
	}

	opts := console.Options{
		In:      os.Stdin,
		Out:     os.Stdout,
		Auth:    authSvc,
		Chat:    orchestrator,
		ChatErr: chatErr,
	}
	if fd := int(os.Stdin.Fd()); console.IsTerminal(fd) {
		opts.ReadPassword = console.TerminalPassword(os.Stdout, fd)
		if restore, err := console.KeepTerminalState(fd); err == nil {
			defer restore()
		} else {
			logger.Warn("failed to save terminal state", zap.Error(err))
		}
	}
	return console.New(opts).Run(ctx)
}

func openStore(ctx context.Context, sec *secrets.Secrets) (*credentials.FileStore, error) {
	hasher, err := credentials.HasherFor(cfg.PasswordHash)
	if err != nil {
		return nil, err
	}
	store, err := credentials.NewFileStore(cfg.CredentialsFilePath, hasher)
	if err != nil {
		return nil, fmt.Errorf("failed to init credential store: %w", err)
	}
	added, err := store.Import(ctx, sec.Users)
	if err != nil {
		return nil, fmt.Errorf("import users from secrets: %w", err)
	}
	if added > 0 {
		logger.Info("imported users from secrets", zap.Int("count", added))
	}
	return store, nil
}

func newOrchestrator(sec *secrets.Secrets) (*chat.Orchestrator, error) {
	if err := cfg.ResolveAPIKey(sec.OpenAI.APIKey); err != nil {
		return nil, err
	}
	client, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	var rec storage.Recorder
	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			logger.Warn("failed to init file recorder", zap.Error(err))
		} else {
			rec = fr
		}
	}

	return chat.New(client, chat.Options{
		Params:       llm.Params{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens},
		SystemPrompt: readSystemPrompt(cfg.SystemPromptPath),
		Timeout:      cfg.RequestTimeout,
		Recorder:     rec,
		Logger:       logger.Named("chat").With(zap.String("provider", string(cfg.LLMProvider))),
	}), nil
}
