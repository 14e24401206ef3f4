package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-assistant/internal/auth"
	"ai-assistant/internal/chat"
	"ai-assistant/internal/config"
	"ai-assistant/internal/credentials"
	"ai-assistant/internal/llm"
)

type echoLLM struct{ fail error }

func (e echoLLM) Generate(_ context.Context, msgs []llm.Message, _ llm.Params) (llm.Response, error) {
	if e.fail != nil {
		return llm.Response{}, e.fail
	}
	return llm.Response{Content: "echo: " + msgs[len(msgs)-1].Content}, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type countingAuthStore struct {
	mu sync.Mutex
	n  int
}

func (s *countingAuthStore) Register(context.Context, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return nil
}

func (s *countingAuthStore) Authenticate(context.Context, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return nil
}

func (s *countingAuthStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func newAuth(t *testing.T) *auth.Authenticator {
	t.Helper()
	store, err := credentials.NewFileStore(filepath.Join(t.TempDir(), "users.json"), nil)
	require.NoError(t, err)
	return auth.New(store, nil)
}

func run(t *testing.T, opts Options, input string) (*Console, string) {
	t.Helper()
	var out bytes.Buffer
	opts.In = strings.NewReader(input)
	opts.Out = &out
	c := New(opts)
	require.NoError(t, c.Run(context.Background()))
	return c, out.String()
}

func TestConsole_SignupLoginChatLogout(t *testing.T) {
	a := newAuth(t)
	o := chat.New(echoLLM{}, chat.Options{})

	input := strings.Join([]string{
		"/signup",
		"alice", "secret1", "secret1",
		"alice", "wrong",
		"alice", "secret1",
		"hi",
		"/history",
		"/clear",
		"/history",
		"/logout",
		"/quit",
	}, "\n") + "\n"
	c, out := run(t, Options{Auth: a, Chat: o}, input)

	assert.Contains(t, out, "Welcome to My AI Assistant")
	assert.Contains(t, out, "Account created, please log in.")
	assert.Contains(t, out, "Invalid username or password.")
	assert.Contains(t, out, "Hello, alice!")
	assert.Contains(t, out, "echo: hi")
	assert.Contains(t, out, "Chat cleared.")
	assert.Contains(t, out, "No messages yet.")
	assert.Contains(t, out, "Logged out.")
	assert.Contains(t, out, "Bye!")
	assert.False(t, c.Session().Authenticated())
}

func TestConsole_RegistrationValidation(t *testing.T) {
	input := "/signup\nbob\nabc\nabc\nbob\nsecret1\nsecret2\n"
	_, out := run(t, Options{Auth: newAuth(t), Chat: chat.New(echoLLM{}, chat.Options{})}, input)
	assert.Contains(t, out, auth.ErrPasswordTooShort.Error())
	assert.Contains(t, out, auth.ErrPasswordMismatch.Error())
	assert.NotContains(t, out, "Account created")
}

func TestConsole_ServiceErrorIsShown(t *testing.T) {
	o := chat.New(echoLLM{fail: &llm.ServiceError{Kind: llm.KindAuth}}, chat.Options{})
	a := newAuth(t)
	input := "/signup\nalice\nsecret1\nsecret1\nalice\nsecret1\nhi\n"
	c, out := run(t, Options{Auth: a, Chat: o}, input)

	assert.Contains(t, out, "check your API key")
	assert.Equal(t, 1, c.Session().Transcript().Len())
}

func TestConsole_ChatUnavailableStillLogsIn(t *testing.T) {
	a := newAuth(t)
	input := "/signup\nalice\nsecret1\nsecret1\nalice\nsecret1\nhi\n"
	c, out := run(t, Options{Auth: a, ChatErr: config.ErrMissingAPIKey}, input)

	assert.True(t, c.Session().Authenticated())
	assert.Contains(t, out, "Hello, alice!")
	assert.Contains(t, out, "Chat is unavailable: "+config.ErrMissingAPIKey.Error())
	assert.Zero(t, c.Session().Transcript().Len())
}

func TestConsole_UsesPasswordReader(t *testing.T) {
	a := newAuth(t)
	var prompts []string
	pw := func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "secret1", nil
	}
	input := "/signup\nalice\nalice\n"
	c, _ := run(t, Options{Auth: a, Chat: chat.New(echoLLM{}, chat.Options{}), ReadPassword: pw}, input)

	assert.Equal(t, []string{"Password: ", "Confirm password: ", "Password: "}, prompts)
	assert.True(t, c.Session().Authenticated())
}

// runUntilCancelled starts Run on a pipe, feeds input, cancels once ready
// reports true for the output so far and returns Run's result.
func runUntilCancelled(t *testing.T, opts Options, input string, ready func(out string) bool) (*Console, error) {
	t.Helper()
	inR, inW := io.Pipe()
	t.Cleanup(func() { _ = inW.Close() })
	out := &syncBuffer{}
	opts.In = inR
	opts.Out = out

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := New(opts)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	if input != "" {
		_, err := io.WriteString(inW, input)
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool { return ready(out.String()) }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		return c, err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the context was cancelled")
		return nil, nil
	}
}

func printed(s string) func(string) bool {
	return func(out string) bool { return strings.Contains(out, s) }
}

func TestConsole_CancelWhileWaitingForUsername(t *testing.T) {
	_, err := runUntilCancelled(t, Options{Auth: newAuth(t), Chat: chat.New(echoLLM{}, chat.Options{})}, "", printed("Username"))
	assert.NoError(t, err)
}

func TestConsole_CancelWhileWaitingForPassword(t *testing.T) {
	store := &countingAuthStore{}
	asked := make(chan struct{})
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	pw := func(prompt string) (string, error) {
		close(asked)
		<-block
		return "secret1", nil
	}
	waiting := func(string) bool {
		select {
		case <-asked:
			return true
		default:
			return false
		}
	}
	opts := Options{Auth: auth.New(store, nil), Chat: chat.New(echoLLM{}, chat.Options{}), ReadPassword: pw}

	c, err := runUntilCancelled(t, opts, "alice\n", waiting)
	assert.NoError(t, err)
	assert.False(t, c.Session().Authenticated())
	assert.Zero(t, store.calls())
}

func TestConsole_CancelAtChatPrompt(t *testing.T) {
	a := newAuth(t)
	input := "/signup\nalice\nsecret1\nsecret1\nalice\nsecret1\n"
	c, err := runUntilCancelled(t, Options{Auth: a, Chat: chat.New(echoLLM{}, chat.Options{})}, input, printed("Hello, alice!"))
	assert.NoError(t, err)
	assert.Zero(t, c.Session().Transcript().Len())
}

func TestTerminalPassword(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	readPassword = func(fd int) ([]byte, error) { return []byte("s3cret!"), nil }
	var out bytes.Buffer
	got, err := TerminalPassword(&out, 0)("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cret!", got)
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(fd int) ([]byte, error) { return nil, errors.New("not a tty") }
	_, err = TerminalPassword(&out, 0)("Password: ")
	assert.Error(t, err)
}
