package commands

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/uhppoted/uhppoted-app-forms/forms"
	"github.com/uhppoted/uhppoted-app-forms/store"
)

var PutCmd = Put{
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
	mode:  string(forms.Replace),
}

type Put struct {
	command
	table string
	file  string
	mode  string
}

func (c *Put) FlagSet() *flag.FlagSet {
	flagset := c.flagset("put")

	flagset.StringVar(&c.table, "table", c.table, "Table name e.g. '자산분류기준표'")
	flagset.StringVar(&c.file, "file", c.file, "TSV file with a header line")
	flagset.StringVar(&c.mode, "mode", c.mode, "Write mode: 'replace' overwrites the table rows, 'append' adds to them")

	return flagset
}

func (c *Put) Execute(args ...any) error {
	ctx, _ := parse(args)

	if strings.TrimSpace(c.table) == "" {
		return fmt.Errorf("--table is a required option")
	}

	if strings.TrimSpace(c.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	mode := forms.Mode(strings.ToLower(strings.TrimSpace(c.mode)))
	if mode != forms.Replace && mode != forms.Append {
		return fmt.Errorf("invalid --mode '%v' (expected replace or append)", c.mode)
	}

	f, err := os.Open(c.file)
	if err != nil {
		return err
	}

	defer f.Close()

	header, rows, err := forms.ParseTSV(f)
	if err != nil {
		return fmt.Errorf("invalid TSV file (%v)", err)
	}

	backend, closer, err := c.open(ctx)
	if err != nil {
		return err
	}

	defer closer()

	tables := store.NewService(store.NewTableStore(backend))

	var result store.WriteResult
	if mode == forms.Append {
		result = tables.AppendRows(ctx, c.table, header, rows)
	} else if ensure := tables.EnsureTable(ctx, c.table, header); ensure.Status == store.StatusError {
		return fmt.Errorf("%v", ensure.Message)
	} else {
		result = tables.ReplaceRows(ctx, c.table, rows)
	}

	if result.Status != store.StatusSuccess {
		return fmt.Errorf("%v", result.Message)
	}

	infof("uploaded TSV file %v to '%v' (%v)", c.file, c.table, result.Message)

	return nil
}

func (c *Put) Name() string {
	return "put"
}

func (c *Put) Description() string {
	return "Uploads a TSV file to a table in the table store"
}

func (c *Put) Usage() string {
	return "--table <table> --file <file> [--mode replace|append]"
}

func (c *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [options] put [--mode replace|append] --table <table> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Uploads a TSV file to a table, creating the table from the TSV header if it does not exist")
	fmt.Println()

	helpOptions(c.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println()
	fmt.Printf("    %s --debug put --credentials \"credentials.json\" \\\n", APP)
	fmt.Println(`                           --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                           --table "자산분류기준표" \`)
	fmt.Println(`                           --file "assets.tsv"`)
	fmt.Println()
}
