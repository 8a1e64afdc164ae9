package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// TelegramConfig holds the application credentials and session location.
type TelegramConfig struct {
	AppID       int
	AppHash     string
	SessionFile string
	Phone       string // optional, prompted for when empty
}

// RunTelegram connects to Telegram, signs in when the stored session is not
// authorized, and calls fn with a provider. It returns when fn returns or ctx ends.
func RunTelegram(ctx context.Context, cfg TelegramConfig, log *zap.Logger, fn func(ctx context.Context, p *TelegramProvider) error) error {
	client := telegram.NewClient(cfg.AppID, cfg.AppHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionFile},
		Logger:         log.Named("mtproto"),
	})

	return client.Run(ctx, func(ctx context.Context) error {
		prompter := newTerminalAuth(cfg.Phone, os.Stdin, os.Stdout)
		flow := auth.NewFlow(prompter, auth.SendCodeOptions{})
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("%w: %w", ErrNotAuthorized, err)
		}
		log.Info("connected to telegram", zap.String("session", cfg.SessionFile))
		return fn(ctx, NewTelegramProvider(client.API(), log.Named("provider")))
	})
}

// terminalAuth asks for the login details on the controlling terminal.
type terminalAuth struct {
	phone string
	in    *bufio.Reader
	fd    int
	out   io.Writer
}

func newTerminalAuth(phone string, in *os.File, out io.Writer) *terminalAuth {
	return &terminalAuth{
		phone: phone,
		in:    bufio.NewReader(in),
		fd:    int(in.Fd()),
		out:   out,
	}
}

func (a *terminalAuth) prompt(message string) (string, error) {
	if _, err := fmt.Fprint(a.out, message); err != nil {
		return "", err
	}
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *terminalAuth) Phone(_ context.Context) (string, error) {
	if a.phone != "" {
		return a.phone, nil
	}
	return a.prompt("Enter your phone number (international format): ")
}

func (a *terminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return a.prompt("Enter the code you received: ")
}

func (a *terminalAuth) Password(_ context.Context) (string, error) {
	if !term.IsTerminal(a.fd) {
		return a.prompt("Enter the 2FA password: ")
	}
	fmt.Fprint(a.out, "Enter the 2FA password: ")
	pass, err := term.ReadPassword(a.fd)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pass)), nil
}

func (a *terminalAuth) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	return &auth.SignUpRequired{TermsOfService: tos}
}

func (a *terminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign up is not supported, register with an official client first")
}
