package commands

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/uhppoted-app-forms/store"
	"github.com/uhppoted/uhppoted-app-forms/store/memory"
	"github.com/uhppoted/uhppoted-app-forms/store/postgres"
	gsheets "github.com/uhppoted/uhppoted-app-forms/store/sheets"
	"github.com/uhppoted/uhppoted-app-forms/store/sqlite"
)

const APP = "uhppoted-app-forms"

type Options struct {
	Debug     bool
	LogFormat string
}

// command holds the options common to every command that opens a table store.
type command struct {
	workdir     string
	credentials string
	tokens      string
	url         string
	store       string
	dsn         string
}

func (cmd *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, "Directory for working files (tokens, databases, etc)")
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the 'credentials.json' file")
	flagset.StringVar(&cmd.tokens, "tokens", cmd.tokens, "Directory for the authorisation tokens. Defaults to <workdir>/.google")
	flagset.StringVar(&cmd.url, "url", cmd.url, "Spreadsheet URL (sheets store)")
	flagset.StringVar(&cmd.store, "store", cmd.store, "Table store: sheets, sqlite, postgres or memory")
	flagset.StringVar(&cmd.dsn, "dsn", cmd.dsn, "Database file (sqlite) or connection string (postgres)")

	return flagset
}

// open returns the backend selected by --store along with a function that releases it.
func (cmd *command) open(ctx context.Context) (store.Backend, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cmd.store)) {
	case "sheets":
		backend, err := cmd.sheets(ctx)
		if err != nil {
			return nil, nil, err
		}

		return backend, func() {}, nil

	case "sqlite":
		dsn := cmd.dsn
		if strings.TrimSpace(dsn) == "" {
			dsn = filepath.Join(cmd.workdir, "forms.db")
		}

		debugf("opening sqlite store %v", dsn)

		db, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}

		return db, func() { db.Close() }, nil

	case "postgres":
		if strings.TrimSpace(cmd.dsn) == "" {
			return nil, nil, fmt.Errorf("--dsn is a required option for the postgres store")
		}

		db, err := postgres.Open(ctx, cmd.dsn)
		if err != nil {
			return nil, nil, err
		}

		return db, func() { db.Close() }, nil

	case "memory":
		warnf("using in-memory table store - data will not be persisted")

		return memory.NewMemory(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("invalid --store '%v' (expected sheets, sqlite, postgres or memory)", cmd.store)
	}
}

func (cmd *command) sheets(ctx context.Context) (*gsheets.Sheets, error) {
	if strings.TrimSpace(cmd.credentials) == "" {
		return nil, fmt.Errorf("--credentials is a required option")
	}

	if strings.TrimSpace(cmd.url) == "" {
		return nil, fmt.Errorf("--url is a required option")
	}

	spreadsheet, err := gsheets.SpreadsheetID(cmd.url)
	if err != nil {
		return nil, err
	}

	debugf("spreadsheet - ID:%s", spreadsheet)

	client, err := authorize(cmd.credentials, SHEETS, cmd.tokenDir())
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%v)", err)
	}

	google, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	return gsheets.NewSheets(google, spreadsheet), nil
}

func (cmd *command) tokenDir() string {
	if cmd.tokens != "" {
		return cmd.tokens
	}

	return filepath.Join(cmd.workdir, ".google")
}

func parse(args []any) (context.Context, *Options) {
	ctx := context.Background()
	options := &Options{}

	for _, arg := range args {
		switch v := arg.(type) {
		case context.Context:
			ctx = v
		case *Options:
			options = v
		}
	}

	return ctx, options
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
		fmt.Println("  Options:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}

func debugf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	slog.Info(fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...))
}
