package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/gimbal-ghost/gimbal-ghost/cmd"
	"github.com/gimbal-ghost/gimbal-ghost/types"
	"github.com/gimbal-ghost/gimbal-ghost/utils"
)

var Version = "dev"

type CLI struct {
	LogLevel string `help:"Diagnostic log level" default:"info" enum:"debug,info,warn,error"`
	LogFile  string `help:"Write diagnostic logs to this file instead of stderr" type:"path"`

	Render  cmd.RenderCmd  `cmd:"" help:"Render stick overlay videos from blackbox logs"`
	Sticks  cmd.SticksCmd  `cmd:"" help:"Check a stick sprite pack for missing or duplicated sprites"`
	Verify  cmd.VerifyCmd  `cmd:"" help:"Verify rendered overlay files"`
	Version cmd.VersionCmd `cmd:"" help:"Show version information"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("gimbal-ghost"),
		kong.Description("Render radio stick overlays for FPV footage from blackbox logs."),
		kong.UsageOnError(),
	)

	logger, err := utils.NewLogger(cli.LogLevel, cli.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	appCtx := &types.AppContext{
		Version: Version,
		Logger:  logger,
		LogFile: cli.LogFile,
	}

	err = ctx.Run(appCtx)
	if err != nil {
		_ = logger.Sync()
	}
	ctx.FatalIfErrorf(err)
}
