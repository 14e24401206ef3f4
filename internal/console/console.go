// Package console is the interactive terminal front-end: login and sign-up
// prompts, then a chat loop over the orchestrator.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ai-assistant/internal/auth"
	"ai-assistant/internal/chat"
	"ai-assistant/internal/llm"
)

const (
	cmdSignup  = "/signup"
	cmdLogin   = "/login"
	cmdQuit    = "/quit"
	cmdClear   = "/clear"
	cmdLogout  = "/logout"
	cmdHistory = "/history"
	cmdHelp    = "/help"
)

// PasswordReader reads a secret after printing prompt.
type PasswordReader func(prompt string) (string, error)

// Options configures a Console. ChatErr, when set, is why chat is unavailable
// (e.g. no API key); login and sign-up keep working.
type Options struct {
	In           io.Reader
	Out          io.Writer
	Auth         *auth.Authenticator
	Chat         *chat.Orchestrator
	ChatErr      error
	ReadPassword PasswordReader
	Title        string
}

type Console struct {
	in       *bufio.Reader
	out      io.Writer
	auth     *auth.Authenticator
	chat     *chat.Orchestrator
	chatErr  error
	session  *auth.Session
	password PasswordReader
	title    string
	st       styles
}

type styles struct {
	title     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	errorText lipgloss.Style
	info      lipgloss.Style
	pending   lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0AAFF")),
		user:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5A189A")).Padding(0, 1),
		assistant: r.NewStyle().Foreground(lipgloss.Color("#E0AAFF")).Background(lipgloss.Color("#240046")).Padding(0, 1),
		errorText: r.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		info:      r.NewStyle().Foreground(lipgloss.Color("#9D4EDD")),
		pending:   r.NewStyle().Faint(true).Italic(true),
	}
}

func New(opts Options) *Console {
	c := &Console{
		in:       bufio.NewReader(opts.In),
		out:      opts.Out,
		auth:     opts.Auth,
		chat:     opts.Chat,
		chatErr:  opts.ChatErr,
		session:  auth.NewSession(),
		password: opts.ReadPassword,
		title:    opts.Title,
		st:       newStyles(opts.Out),
	}
	if c.title == "" {
		c.title = "My AI Assistant"
	}
	if c.password == nil {
		c.password = c.readLinePassword
	}
	if c.chat == nil && c.chatErr == nil {
		c.chatErr = errors.New("chat is not configured")
	}
	return c
}

func (c *Console) Session() *auth.Session { return c.session }

// Run drives the session until /quit, end of input or ctx cancellation. A
// cancelled ctx interrupts a pending prompt and ends Run without error.
func (c *Console) Run(ctx context.Context) error {
	c.println(c.st.title.Render("Welcome to " + c.title))
	if c.chatErr != nil {
		c.printError("Chat is unavailable: " + c.chatErr.Error())
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		var (
			quit bool
			err  error
		)
		if c.session.Authenticated() {
			quit, err = c.chatStep(ctx)
		} else {
			quit, err = c.authStep(ctx)
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			c.println("")
			return nil
		}
		if err != nil {
			return err
		}
		if quit {
			c.println(c.st.info.Render("Bye!"))
			return nil
		}
	}
}

func (c *Console) authStep(ctx context.Context) (bool, error) {
	mode := c.session.Mode()
	var prompt string
	if mode == auth.ModeLogin {
		prompt = fmt.Sprintf("Username (%s to create an account, %s to exit): ", cmdSignup, cmdQuit)
	} else {
		prompt = fmt.Sprintf("Choose username (%s to sign in instead, %s to exit): ", cmdLogin, cmdQuit)
	}
	username, err := c.readLine(ctx, prompt)
	if err != nil {
		return false, err
	}

	switch username {
	case cmdQuit:
		return true, nil
	case cmdSignup:
		if mode == auth.ModeLogin {
			c.auth.ToggleMode(c.session)
		}
		c.println(c.st.info.Render("Sign up for a new account."))
		return false, nil
	case cmdLogin:
		if mode == auth.ModeRegister {
			c.auth.ToggleMode(c.session)
		}
		return false, nil
	}

	password, err := c.readPassword(ctx, "Password: ")
	if err != nil {
		return false, err
	}

	if mode == auth.ModeRegister {
		confirm, err := c.readPassword(ctx, "Confirm password: ")
		if err != nil {
			return false, err
		}
		if err := c.auth.SubmitRegister(ctx, c.session, username, password, confirm); err != nil {
			c.printError(auth.UserMessage(err))
			return false, nil
		}
		c.println(c.st.info.Render("Account created, please log in."))
		return false, nil
	}

	if err := c.auth.SubmitLogin(ctx, c.session, username, password); err != nil {
		c.printError(auth.UserMessage(err))
		return false, nil
	}
	user, _ := c.session.CurrentUser()
	c.println(c.st.title.Render(fmt.Sprintf("Hello, %s!", user)))
	if c.chatErr != nil {
		c.printError("Chat is unavailable: " + c.chatErr.Error())
	}
	c.println(c.st.info.Render(fmt.Sprintf("Commands: %s %s %s %s", cmdClear, cmdHistory, cmdLogout, cmdQuit)))
	return false, nil
}

func (c *Console) chatStep(ctx context.Context) (bool, error) {
	line, err := c.readLine(ctx, "> ")
	if err != nil {
		return false, err
	}

	switch strings.TrimSpace(line) {
	case cmdQuit:
		c.auth.Logout(c.session)
		return true, nil
	case cmdLogout:
		c.auth.Logout(c.session)
		c.println(c.st.info.Render("Logged out."))
		return false, nil
	case cmdClear:
		if c.chat != nil {
			c.chat.ClearTranscript(c.session)
		} else {
			c.session.Transcript().Reset()
		}
		c.println(c.st.info.Render("Chat cleared."))
		return false, nil
	case cmdHistory:
		c.renderTranscript()
		return false, nil
	case cmdHelp:
		c.println(c.st.info.Render(fmt.Sprintf("Commands: %s %s %s %s", cmdClear, cmdHistory, cmdLogout, cmdQuit)))
		return false, nil
	}

	if c.chat == nil {
		c.printError("Chat is unavailable: " + c.chatErr.Error())
		return false, nil
	}
	if strings.TrimSpace(line) == "" {
		return false, nil
	}

	c.println(c.st.user.Render(line))
	fmt.Fprint(c.out, c.st.pending.Render("thinking…"))
	reply, err := c.chat.SubmitUserMessage(ctx, c.session, line)
	// replace the placeholder line
	fmt.Fprint(c.out, "\r\033[K")
	switch {
	case errors.Is(err, chat.ErrBusy), errors.Is(err, chat.ErrNotAuthenticated), errors.Is(err, chat.ErrTranscriptReset):
		c.printError(err.Error())
	case err != nil:
		c.printError(llm.UserMessage(err))
	case !reply.Skipped:
		c.println(c.st.assistant.Render(reply.Content))
	}
	return false, nil
}

func (c *Console) renderTranscript() {
	msgs := c.session.Transcript().Messages()
	if len(msgs) == 0 {
		c.println(c.st.info.Render("No messages yet."))
		return
	}
	for _, m := range msgs {
		if m.Role == llm.RoleUser {
			c.println(c.st.user.Render(m.Content))
		} else {
			c.println(c.st.assistant.Render(m.Content))
		}
	}
}

type readResult struct {
	text string
	err  error
}

// await runs a blocking read off the caller's goroutine so that ctx can
// interrupt it. An abandoned read finishes into a buffered channel.
func await(ctx context.Context, read func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ch := make(chan readResult, 1)
	go func() {
		text, err := read()
		ch <- readResult{text: text, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.text, r.err
	}
}

func (c *Console) readLine(ctx context.Context, prompt string) (string, error) {
	return await(ctx, func() (string, error) { return c.readLineSync(prompt) })
}

func (c *Console) readPassword(ctx context.Context, prompt string) (string, error) {
	return await(ctx, func() (string, error) { return c.password(prompt) })
}

func (c *Console) readLineSync(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readLinePassword is used when input is not a terminal.
func (c *Console) readLinePassword(prompt string) (string, error) {
	return c.readLineSync(prompt)
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printError(s string) {
	c.println(c.st.errorText.Render("⚠ " + s))
}
