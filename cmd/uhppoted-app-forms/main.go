package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/uhppoted/uhppoted-app-forms/commands"
	"github.com/uhppoted/uhppoted-app-forms/logging"
)

var cli = []uhppoted.Command{
	&commands.VersionCmd,
	&commands.AuthoriseCmd,
	&commands.GetCmd,
	&commands.PutCmd,
	&commands.ServeCmd,
	&commands.RevisionCmd,
}

var options = commands.Options{
	Debug:     false,
	LogFormat: "text",
}

var help = uhppoted.NewHelp(commands.APP, cli, nil)

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.StringVar(&options.LogFormat, "log-format", options.LogFormat, "Log format: 'text' or 'json'")
	flag.Parse()

	logging.Setup(options.Debug, options.LogFormat)

	cmd, err := uhppoted.Parse(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	if cmd == nil {
		help.Execute()
		os.Exit(1)
	}

	if err = cmd.Execute(context.Background(), &options); err != nil {
		fmt.Fprintf(os.Stderr, "\n   ERROR: %v\n\n", err)
		os.Exit(1)
	}
}
