package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/linkfeed/internal/app"
	"github.com/samvad-hq/linkfeed/internal/config"
	"github.com/samvad-hq/linkfeed/internal/domain"
	"github.com/samvad-hq/linkfeed/internal/logger"
	"github.com/samvad-hq/linkfeed/internal/version"
	"github.com/samvad-hq/linkfeed/internal/webpage"
	"github.com/samvad-hq/linkfeed/pkg/httpclient"
	"github.com/samvad-hq/linkfeed/pkg/uid"
)

const usage = `Usage:
  linkfeed [OPTIONS] FEED_PATH   serve the feed stored at FEED_PATH
  linkfeed gen-token             print a new random token
  linkfeed fetch URL             print the metadata extracted from URL

Configuration is read from LINKFEED_* environment variables and an optional .env file.

Options:
`

var errUsage = errors.New("invalid arguments")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "linkfeed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(version.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	showVersion := fs.BoolP("version", "V", false, "print version information and exit")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s version %s\n", version.Name, version.Version)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return fmt.Errorf("%w: missing FEED_PATH", errUsage)
	}

	switch rest[0] {
	case "gen-token":
		if len(rest) != 1 {
			return fmt.Errorf("%w: gen-token takes no arguments", errUsage)
		}
		fmt.Fprintln(stdout, uid.Base62(config.MinTokenLength))
		return nil
	case "fetch":
		if len(rest) != 2 {
			return fmt.Errorf("%w: fetch takes exactly one URL", errUsage)
		}
		return fetch(rest[1], stdout, stderr)
	default:
		if len(rest) != 1 {
			return fmt.Errorf("%w: unexpected arguments after FEED_PATH", errUsage)
		}
		return serve(rest[0])
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}

func fetch(raw string, stdout, stderr io.Writer) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("invalid URL %q", raw)
	}

	ctx, stop := signalContext()
	defer stop()

	client := httpclient.NewRestyClient(httpclient.Options{UserAgent: version.UserAgent()})
	page, err := webpage.NewFetcher(client, nil).Fetch(ctx, u.String())
	if err != nil {
		if page == (domain.WebPage{}) {
			return fmt.Errorf("fetch %s: %w", u, err)
		}
		fmt.Fprintf(stderr, "warning: %v\n", err)
	}

	enc := yaml.NewEncoder(stdout)
	defer enc.Close()
	if err := enc.Encode(page); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return nil
}

func serve(feedPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.FeedPath = feedPath

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("configuration loaded", "config", cfg)

	ctx, stop := signalContext()
	defer stop()

	linkfeed, err := app.New(cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize linkfeed", "error", err.Error())
		return err
	}

	if err := linkfeed.Run(ctx); err != nil {
		return fmt.Errorf("linkfeed run: %w", err)
	}
	return nil
}
