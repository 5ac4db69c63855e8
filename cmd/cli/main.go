package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"playground/internal/authapi"
	"playground/internal/cli/config"
	"playground/internal/cli/repl"
	"playground/internal/cli/state"
	"playground/internal/request"
	"playground/pkg/utils/logger"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	loginURL := flag.String("login", "", "Override absolute login URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	token := flag.String("token", "", "Override access token")
	statePath := flag.String("state", "", "Override token state path")
	pretty := flag.Bool("pretty", false, "Pretty print JSON response")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *loginURL != "" {
		cfg.LoginURL = *loginURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *statePath != "" {
		cfg.TokenStatePath = *statePath
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	tokens, err := state.Open(cfg.TokenStatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load token state failed: %v\n", err)
		os.Exit(1)
	}
	if *token != "" {
		tokens.SetAccessToken(*token)
	}

	jar, err := request.NewCookieJar()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	clientCfg := request.Config{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		SuccessCode: cfg.SuccessCode,
	}
	bare := request.NewBareClient(clientCfg, jar)
	base := request.NewBaseClient(clientCfg, jar)
	api := request.NewRequestClient(clientCfg, jar, tokens.AccessToken)

	auth := authapi.New(cfg.LoginURL, bare, base, api)
	session := repl.New(auth, []*request.Client{bare, base, api}, tokens, cfg.PrettyJSON != nil && *cfg.PrettyJSON, os.Stdin, os.Stdout)
	session.Run(context.Background())
}
