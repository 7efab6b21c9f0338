// Command textfit inspects the TEXT columns of one table and prints
// ALTER TABLE and CREATE INDEX suggestions. It never changes the database.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

const version = "0.2.0"

// Globals are flags shared by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"Path to config.yaml" type:"path"`
	EnvFile   string `name:"env-file" default:".env" help:"Env file loaded before reading the environment (ignored if missing)"`
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Diagnostic log level (stderr)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Diagnostic log format"`
}

type CLI struct {
	Globals

	Advise  AdviseCmd  `cmd:"" default:"withargs" help:"Measure TEXT columns and print ALTER TABLE / CREATE INDEX suggestions"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("textfit version %s\n", version)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("textfit"),
		kong.Description("Suggest VARCHAR/TIME sizes and indexes for a table's TEXT columns"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(&cli.Globals),
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "textfit error: %v\n", err)
		os.Exit(1)
	}
}
