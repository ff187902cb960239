package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"botboard/internal/bots"
	"botboard/internal/hub"
	"botboard/internal/tui"
	"botboard/internal/utils"
)

func Run() int {
	if len(os.Args) < 2 {
		return runTUI(os.Args[1:])
	}

	cmd := os.Args[1]
	if strings.HasPrefix(cmd, "-") {
		return runTUI(os.Args[1:])
	}
	switch cmd {
	case "bots":
		return runBots(os.Args[2:])
	case "check":
		return runCheck(os.Args[2:])
	case "tui":
		return runTUI(os.Args[2:])
	default:
		usage()
		return 1
	}
}

func usage() {
	fmt.Println("botboard [command] [options]")
	fmt.Println("Commands: tui (default), bots, check")
}

type commonFlags struct {
	secrets *string
	timeout *time.Duration
	verbose *bool
}

func registerCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		secrets: fs.String("secrets", hub.DefaultSecretsFile, "path to secrets file"),
		timeout: fs.Duration("timeout", 0, "webhook timeout (default 180s)"),
		verbose: fs.Bool("verbose", false, "debug logging"),
	}
}

func buildConfig(flags commonFlags) (*hub.Config, error) {
	cfg := hub.DefaultConfig()
	cfg.Secrets.File = *flags.secrets
	if *flags.timeout > 0 {
		cfg.Relay.Timeout = *flags.timeout
	}
	if *flags.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	flags := registerCommon(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := buildConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// The TUI owns the terminal, so logging is discarded while it runs.
	logger := utils.NewNopLogger()
	registry := bots.Discover(cfg, logger)

	if err := tui.Run(cfg, registry, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runBots(args []string) int {
	fs := flag.NewFlagSet("bots", flag.ContinueOnError)
	flags := registerCommon(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := buildConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := utils.NewLogger(cfg.Log.Level)
	defer logger.Sync()
	registry := bots.Discover(cfg, logger)

	if registry.Len() == 0 {
		fmt.Println("no bots available")
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, bot := range registry.List() {
		fmt.Fprintf(w, "%s\t%s %s\t%s\n", bot.ID, bot.Emoji, bot.Name, bot.Description)
	}
	w.Flush()
	return 0
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	flags := registerCommon(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := buildConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := utils.NewLogger(cfg.Log.Level)
	defer logger.Sync()
	registry := bots.Discover(cfg, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWEBHOOK\tSOURCE")
	for _, bot := range registry.List() {
		if bot.Webhook.URL == "" {
			fmt.Fprintf(w, "%s\tnot configured\t(set %s)\n", bot.ID, hub.PerBotWebhookKey(bot.ID))
			continue
		}
		fmt.Fprintf(w, "%s\tconfigured\t%s\n", bot.ID, bot.WebhookKey)
	}
	w.Flush()
	return 0
}
