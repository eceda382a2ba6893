package commands

import (
	"flag"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	gsheets "github.com/uhppoted/uhppoted-app-forms/store/sheets"
)

var RevisionCmd = Revision{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		tokens:      "",
		url:         "",
		store:       "sheets",
	},
}

// Revision displays the worksheets and the latest Drive revision of the spreadsheet used as the
// table store.
type Revision struct {
	command
}

func (cmd *Revision) Name() string {
	return "revision"
}

func (cmd *Revision) Description() string {
	return "Displays the latest revision of the table store spreadsheet"
}

func (cmd *Revision) Usage() string {
	return "--credentials <file> --url <url>"
}

func (cmd *Revision) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s revision [options] --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Displays the spreadsheet title, the worksheets (tables) and the latest revision")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
}

func (cmd *Revision) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("revision", flag.ExitOnError)

	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, "Directory for working files (tokens, databases, etc)")
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the 'credentials.json' file")
	flagset.StringVar(&cmd.tokens, "tokens", cmd.tokens, "Directory for the authorisation tokens. Defaults to <workdir>/.google")
	flagset.StringVar(&cmd.url, "url", cmd.url, "Spreadsheet URL")

	return flagset
}

func (cmd *Revision) Execute(args ...any) error {
	ctx, _ := parse(args)

	spreadsheet, err := cmd.sheets(ctx)
	if err != nil {
		return err
	}

	id, err := gsheets.SpreadsheetID(cmd.url)
	if err != nil {
		return err
	}

	client, err := authorize(cmd.credentials, DRIVE, cmd.tokenDir())
	if err != nil {
		return fmt.Errorf("authentication/authorization error (%v)", err)
	}

	gdrive, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("unable to create new Drive client (%v)", err)
	}

	title, worksheets, err := spreadsheet.Describe(ctx)
	if err != nil {
		return err
	}

	latest, err := getVersion(ctx, gdrive, id)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  spreadsheet  %v\n", title)
	fmt.Printf("  tables       %v\n", strings.Join(worksheets, ", "))
	fmt.Printf("  revision     %v\n", latest.revision)
	fmt.Printf("  modified     %v\n", latest.modified.Local().Format("2006-01-02 15:04:05"))
	fmt.Println()

	return nil
}
