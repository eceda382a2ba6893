package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/oauth2"
)

var AuthoriseCmd = Authorise{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		tokens:      "",
	},
	bind: "127.0.0.1:8085",
}

// Authorise runs the OAuth2 authorisation code flow in a browser and caches the resulting tokens
// for the Sheets and Drive APIs.
type Authorise struct {
	command
	bind string
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises uhppoted-app-forms to access Google Sheets and Google Drive"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file>"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options] --credentials <file>\n", APP)
	fmt.Println()
	fmt.Println("  Authorises uhppoted-app-forms to access the Google Sheets and Google Drive APIs. The")
	fmt.Println("  authorisation tokens are cached in the tokens directory.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s authorise --credentials \"credentials.json\"\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("authorise", flag.ExitOnError)

	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, "Directory for working files (tokens, databases, etc)")
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the 'credentials.json' file")
	flagset.StringVar(&cmd.tokens, "tokens", cmd.tokens, "Directory for the authorisation tokens. Defaults to <workdir>/.google")
	flagset.StringVar(&cmd.bind, "bind", cmd.bind, "Local address for the OAuth2 redirect")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	ctx, _ := parse(args)

	if strings.TrimSpace(cmd.credentials) == "" {
		return fmt.Errorf("--credentials is a required option")
	}

	for _, scope := range []string{SHEETS, DRIVE} {
		if err := cmd.authenticate(ctx, scope); err != nil {
			return fmt.Errorf("authorisation error (%v)", err)
		}
	}

	return nil
}

func (cmd *Authorise) authenticate(ctx context.Context, scope string) error {
	config, err := oauth2Config(cmd.credentials, scope)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cmd.bind)
	if err != nil {
		return err
	}

	state, err := nonce()
	if err != nil {
		return err
	}

	config.RedirectURL = fmt.Sprintf("http://%v/", listener.Addr())

	codes := make(chan string, 1)
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		if rq.FormValue("state") != state || rq.FormValue("code") == "" {
			http.Error(w, "invalid authorisation response", http.StatusBadRequest)
			return
		}

		fmt.Fprintln(w, "Authorised - you can close this window")

		select {
		case codes <- rq.FormValue("code"):
		default:
		}
	})

	srv := &http.Server{
		Handler: mux,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			warnf("%v", err)
		}
	}()

	defer srv.Shutdown(context.Background())

	interrupt, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	fmt.Println()
	fmt.Println("Open the following link in your browser to authorise access:")
	fmt.Println()
	fmt.Printf("  %v\n", config.AuthCodeURL(state, oauth2.AccessTypeOffline))
	fmt.Println()

	select {
	case <-interrupt.Done():
		return fmt.Errorf("cancelled")

	case code := <-codes:
		token, err := config.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("unable to retrieve token (%v)", err)
		}

		file := tokenFile(cmd.credentials, scope, cmd.tokenDir())
		if err := saveToken(file, token); err != nil {
			return err
		}

		infof("saved authorisation token to %v", file)
	}

	return nil
}

func nonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
