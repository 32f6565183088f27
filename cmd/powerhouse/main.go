// Command powerhouse runs prompts through the AiPowerHouse pipeline from the
// command line.
//
// Usage:
//
//	powerhouse [-config aipowerhouse.toml] <command> [flags]
//
// Commands:
//
//	prompt        screen, route and print one prompt
//	health        probe every provider
//	providers     list provider kinds and availability
//	playbooks     list routing playbooks
//	config        print the effective configuration (API keys omitted)
//	audit         screen a prompt and print the resulting audit report
//	generate-key  print a fresh random key (uuid)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	aipowerhouse "github.com/Shards-inc/AiPowerHouse"
	"github.com/Shards-inc/AiPowerHouse/config"
	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("AIPOWERHOUSE_CONFIG"), "path to a TOML configuration file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-config file] <prompt|health|providers|playbooks|config|audit|generate-key> [flags]\n", os.Args[0])
	flag.PrintDefaults()
}

func run(ctx context.Context, configPath, cmd string, args []string) error {
	if cmd == "generate-key" {
		fmt.Println(uuid.NewString())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, false)
	ph := aipowerhouse.FromConfig(cfg, func(o *aipowerhouse.Options) {
		o.Logger = logger
	})

	switch cmd {
	case "prompt":
		return runPrompt(ctx, ph, args)
	case "health":
		return printJSON(ph.HealthCheck(ctx))
	case "providers":
		return printJSON(ph.Providers())
	case "playbooks":
		return printJSON(ph.Playbooks().List())
	case "config":
		return printJSON(cfg)
	case "audit":
		return runAudit(ph, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runPrompt(ctx context.Context, ph *aipowerhouse.PowerHouse, args []string) error {
	fs := flag.NewFlagSet("prompt", flag.ExitOnError)
	var in aipowerhouse.PromptInput
	fs.StringVar(&in.Context, "context", "", "system / context text")
	fs.StringVar(&in.ProviderID, "provider", "", "explicit provider (chatgpt, claude, gemini)")
	fs.StringVar(&in.Routing, "routing", "", "routing strategy")
	fs.StringVar(&in.PlaybookID, "playbook", "", "playbook id")
	fs.StringVar(&in.UserID, "user", "", "caller user id")
	timeout := fs.Duration("timeout", 2*time.Minute, "overall deadline")
	showMetrics := fs.Bool("metrics", false, "print aggregate metrics after the call")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return core.NewValidationError("prompt is required", nil)
	}
	in.Prompt = fs.Arg(0)

	sess, err := ph.Sessions().Create(in.UserID)
	if err != nil {
		return err
	}
	in.SessionID = sess.ID

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	res, err := ph.Prompt(ctx, in)
	if err != nil {
		return err
	}
	if err := printJSON(res); err != nil {
		return err
	}
	if *showMetrics {
		return printJSON(ph.Metrics())
	}
	return nil
}

// runAudit screens a prompt without dispatching it.
func runAudit(ph *aipowerhouse.PowerHouse, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return core.NewValidationError("prompt is required", nil)
	}

	screen := ph.Governance()
	res := screen.ScreenOutgoing(core.NewRequest(fs.Arg(0)))
	fmt.Fprintf(os.Stderr, "permitted=%t issues=%v\n", res.Permitted, res.Issues)
	return printJSON(screen.ExportReport())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitCode(err error) int {
	switch core.StatusCode(err) {
	case http.StatusBadRequest:
		return 2
	case http.StatusGatewayTimeout:
		return 4
	default:
		return 1
	}
}
