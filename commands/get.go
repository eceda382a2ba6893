package commands

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uhppoted/uhppoted-app-forms/forms"
	"github.com/uhppoted/uhppoted-app-forms/store"
)

var GetCmd = Get{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		tokens:      "",
		url:         "",
		store:       "sheets",
		dsn:         "",
	},

	table: "",
	file:  "",
}

type Get struct {
	command
	table string
	file  string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves a table from the table store and saves it to a local TSV file"
}

func (cmd *Get) Usage() string {
	return "--table <table> --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --table <table> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads a table (header and data rows) to a TSV file")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug get --credentials \"credentials.json\" \\\n", APP)
	fmt.Println(`                           --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                           --table "자산분류기준표" \`)
	fmt.Println(`                           --file "assets.tsv"`)
	fmt.Println()
	fmt.Printf("    %s get --store sqlite --dsn forms.db --table \"자산분류기준표\"\n", APP)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.table, "table", cmd.table, "Table name e.g. '자산분류기준표'")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to '<table> <yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	ctx, _ := parse(args)

	if strings.TrimSpace(cmd.table) == "" {
		return fmt.Errorf("--table is a required option")
	}

	file := cmd.file
	if strings.TrimSpace(file) == "" {
		file = fmt.Sprintf("%v %v.tsv", strings.TrimSpace(cmd.table), time.Now().Format("2006-01-02T150405"))
	}

	backend, closer, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	defer closer()

	tables := store.NewService(store.NewTableStore(backend))
	result := tables.ReadRaw(ctx, cmd.table)
	if result.Status != store.StatusSuccess {
		return fmt.Errorf("%v", result.Message)
	}

	tmp, err := os.CreateTemp(os.TempDir(), "forms-*.tsv")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := forms.MakeTSV(tmp, result.Data); err != nil {
		return fmt.Errorf("error creating TSV file (%v)", err)
	}

	tmp.Close()

	if dir := filepath.Dir(file); dir != "" {
		if err := os.MkdirAll(dir, 0770); err != nil {
			return err
		}
	}

	if err := os.Rename(tmp.Name(), file); err != nil {
		return err
	}

	infof("retrieved %v rows from '%v' to file %s", len(result.Data)-1, cmd.table, file)

	return nil
}
