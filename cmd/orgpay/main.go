package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/wolfeidau/orgpay/cmd/orgpay/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode." env:"ORGPAY_DEBUG"`
		Version kong.VersionFlag

		Run     commands.RunCmd     `cmd:"" help:"Run the payment dispatcher until interrupted"`
		Pass    commands.PassCmd    `cmd:"" help:"Run a single dispatcher pass and exit"`
		Migrate commands.MigrateCmd `cmd:"" help:"Apply the database schema and exit"`
		Org     commands.OrgCmd     `cmd:"" help:"Administer organizations, members and schedules (operator use)"`
	}
)

func main() {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		_, _ = os.Stderr.WriteString("failed to load .env: " + err.Error() + "\n")
	}

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("orgpay"),
		kong.Description("Recurring point payments for organizations."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
