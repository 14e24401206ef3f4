package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ai-assistant/internal/auth"
	"ai-assistant/internal/console"
	"ai-assistant/internal/credentials"
	"ai-assistant/internal/secrets"
)

var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create an account in the credential store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sec, err := secrets.Load(cfg.SecretsFilePath)
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context(), sec)
		if err != nil {
			return err
		}
		password, confirm, err := promptPasswordTwice(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}

		a := auth.New(store, logger.Named("auth"))
		s := auth.NewSession()
		a.ToggleMode(s)
		if err := a.SubmitRegister(cmd.Context(), s, args[0], password, confirm); err != nil {
			return errors.New(auth.UserMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s registered.\n", strings.TrimSpace(args[0]))
		return nil
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash [username]",
	Short: "Print a [users] entry for the secrets file",
	Long: `Prints the TOML snippet that provisions a user by hand in the secrets
file. Users listed there are imported into the credential store on start.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, confirm, err := promptPasswordTwice(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := auth.ValidateRegistration(args[0], password, confirm); err != nil {
			return err
		}
		entry, err := secrets.UserEntry(strings.TrimSpace(args[0]), credentials.HashSHA256(password))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Add this to %s:\n\n%s", cfg.SecretsFilePath, entry)
		return nil
	},
}

func promptPasswordTwice(in io.Reader, out io.Writer) (string, string, error) {
	var read console.PasswordReader
	if f, ok := in.(*os.File); ok && console.IsTerminal(int(f.Fd())) {
		read = console.TerminalPassword(out, int(f.Fd()))
	} else {
		r := bufio.NewReader(in)
		read = func(prompt string) (string, error) {
			fmt.Fprint(out, prompt)
			line, err := r.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && line != "") {
				return "", err
			}
			return strings.TrimRight(line, "\r\n"), nil
		}
	}
	password, err := read("Password: ")
	if err != nil {
		return "", "", err
	}
	confirm, err := read("Confirm password: ")
	if err != nil {
		return "", "", err
	}
	return password, confirm, nil
}
