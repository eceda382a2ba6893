package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/uhppoted/uhppoted-app-forms/forms"
	"github.com/uhppoted/uhppoted-app-forms/store"
	"github.com/uhppoted/uhppoted-app-forms/web"
)

var ServeCmd = Serve{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		tokens:      "",
		url:         "",
		store:       "sheets",
		dsn:         "",
	},

	forms:   DEFAULT_FORMS,
	bind:    "127.0.0.1:8080",
	timeout: 60 * time.Second,
	origins: "",
	rate:    10,
	burst:   20,
	watch:   false,
}

// Serve runs the HTTP/JSON API for the table store and the configured forms.
type Serve struct {
	command
	forms   string
	bind    string
	timeout time.Duration
	origins string
	rate    float64
	burst   int
	watch   bool
}

func (cmd *Serve) Name() string {
	return "serve"
}

func (cmd *Serve) Description() string {
	return "Serves the table store and form API over HTTP"
}

func (cmd *Serve) Usage() string {
	return "--bind <address> --forms <file>"
}

func (cmd *Serve) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] serve [options]\n", APP)
	fmt.Println()
	fmt.Println("  Serves the table store operations and the form definitions as a JSON API")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s serve --store sqlite --dsn forms.db --bind 0.0.0.0:8080\n", APP)
	fmt.Printf("    %s serve --url <URL> --cors https://intranet.example.com --watch\n", APP)
	fmt.Println()
}

func (cmd *Serve) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("serve")

	flagset.StringVar(&cmd.forms, "forms", cmd.forms, "Form definitions file. Defaults to the built-in forms if the file does not exist")
	flagset.StringVar(&cmd.bind, "bind", cmd.bind, "HTTP server bind address")
	flagset.DurationVar(&cmd.timeout, "timeout", cmd.timeout, "Request timeout")
	flagset.StringVar(&cmd.origins, "cors", cmd.origins, "Comma separated list of origins allowed to call the API from a browser")
	flagset.Float64Var(&cmd.rate, "rate", cmd.rate, "Requests per second allowed per client (0 disables rate limiting)")
	flagset.IntVar(&cmd.burst, "burst", cmd.burst, "Request burst allowed per client")
	flagset.BoolVar(&cmd.watch, "watch", cmd.watch, "Reloads the form definitions when the forms file changes")

	return flagset
}

func (cmd *Serve) Execute(args ...any) error {
	ctx, _ := parse(args)

	server, service, closer, err := cmd.server(ctx)
	if err != nil {
		return err
	}

	defer closer()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(ctx, cmd.bind)
	})

	if cmd.watch {
		g.Go(func() error {
			return cmd.watchForms(ctx, service)
		})
	}

	return g.Wait()
}

func (cmd *Serve) server(ctx context.Context) (*web.Server, *forms.Service, func(), error) {
	definitions, err := forms.Load(cmd.forms)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading forms (%v)", err)
	}

	for _, form := range definitions {
		debugf("form %-22v %v (%v)", form.ID, form.Table, form.Mode)
	}

	backend, closer, err := cmd.open(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	tables := store.NewService(store.NewTableStore(backend))
	service := forms.NewService(definitions, tables)
	options := web.Options{
		Timeout:           cmd.timeout,
		Origins:           origins(cmd.origins),
		RequestsPerSecond: cmd.rate,
		Burst:             cmd.burst,
	}

	return web.NewServer(tables, service, options), service, closer, nil
}

// watchForms reloads the form definitions whenever the forms file is written. The directory is
// watched rather than the file so that editors that replace the file are handled.
func (cmd *Serve) watchForms(ctx context.Context, service *forms.Service) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	defer watcher.Close()

	file := filepath.Clean(cmd.forms)
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("error watching forms file (%v)", err)
	}

	infof("watching %v", file)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) == file && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				cmd.reload(service)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			warnf("forms watcher (%v)", err)
		}
	}
}

func (cmd *Serve) reload(service *forms.Service) {
	definitions, err := forms.Load(cmd.forms)
	if err != nil {
		warnf("forms not reloaded (%v)", err)
		return
	}

	service.Reload(definitions)
	infof("reloaded %v forms from %v", len(definitions), cmd.forms)
}

func origins(list string) []string {
	origins := []string{}
	for _, v := range strings.Split(list, ",") {
		if origin := strings.TrimSpace(v); origin != "" {
			origins = append(origins, origin)
		}
	}

	return origins
}
