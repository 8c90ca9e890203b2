package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"roaster/pkg/address"
	"roaster/pkg/app"
	"roaster/pkg/config"
	"roaster/pkg/i18n"
	"roaster/pkg/logger"
	"roaster/pkg/models"
	"roaster/pkg/server"
	"roaster/pkg/tui"
	"roaster/pkg/utils"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Version should be set during build
var Version = "dev"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "roaster",
		Usage:   "roast a Solana wallet like a true friend",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to configuration file", EnvVars: []string{"ROASTER_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "override the configured log level", EnvVars: []string{"ROASTER_LOG_LEVEL"}},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with credentials", EnvVars: []string{"ROASTER_ENV_FILE"}},
			&cli.StringFlag{Name: "lang", Usage: "interface language (en, fr)", EnvVars: []string{"ROASTER_LANG"}},
			&cli.BoolFlag{Name: "api", Usage: "also serve the HTTP API while the terminal UI runs"},
			&cli.IntFlag{Name: "port", Usage: "port for the HTTP API", EnvVars: []string{"ROASTER_PORT"}},
		},
		Action:   runTUI,
		Commands: []*cli.Command{serveCmd, roastCmd, checkCmd, restoreCmd},
	}
}

var serveCmd = &cli.Command{
	Name:   "serve",
	Usage:  "run headless, serving the HTTP API and websocket feed",
	Action: runServe,
}

var roastCmd = &cli.Command{
	Name:      "roast",
	Usage:     "roast one address and print the result",
	ArgsUsage: "<address>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "print the snapshot and roast as JSON"},
	},
	Action: runRoast,
}

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: "validate the configuration and probe every configured endpoint",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "output the report as JSON"},
		&cli.BoolFlag{Name: "dry-run", Usage: "do not rewrite the configuration file"},
	},
	Action: runCheck,
}

var restoreCmd = &cli.Command{
	Name:  "restore-config",
	Usage: "restore the most recent configuration backup",
	Action: func(cctx *cli.Context) error {
		path, err := config.GetConfigPath(cctx.String("config"))
		if err != nil {
			return err
		}
		if err := config.RestoreLastBackup(path); err != nil {
			return err
		}
		fmt.Printf("Restored last backup to %s\n", path)
		return nil
	},
}

type appEnv struct {
	cfg    config.Config
	path   string
	logger *zap.Logger
}

// setup loads configuration and credentials and builds the logger. When
// toFile is set the logger writes to the configured file so the terminal
// stays free for the UI or command output. Unless lenient, a config that
// fails validation is refused.
func setup(cctx *cli.Context, toFile, lenient bool) (*appEnv, error) {
	path, err := config.GetConfigPath(cctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("determining config path: %w", err)
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := config.LoadEnv(&cfg, cctx.String("env-file")); err != nil {
		return nil, err
	}

	if lvl := cctx.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if lang := cctx.String("lang"); lang != "" {
		cfg.Language = i18n.Normalize(lang)
	}
	if port := cctx.Int("port"); port > 0 {
		cfg.Server.Port = port
	}
	if problems := config.Validate(cfg); len(problems) > 0 && !lenient {
		return nil, fmt.Errorf("invalid configuration at %s: %s", path, strings.Join(problems, "; "))
	}

	file := ""
	if toFile {
		file = cfg.Log.File
	}
	log, err := logger.New(cfg.Log.Level, file)
	if err != nil {
		return nil, err
	}
	log.Info("Configuration loaded", zap.String("path", path), zap.String("version", Version))
	return &appEnv{cfg: cfg, path: path, logger: log}, nil
}

func runTUI(cctx *cli.Context) error {
	rt, err := setup(cctx, true, false)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	ctx, cancel := context.WithCancel(cctx.Context)
	defer cancel()

	o := app.Build(rt.cfg, rt.logger, prometheus.DefaultRegisterer)

	if cctx.Bool("api") {
		gin.SetMode(gin.ReleaseMode)
		srv := server.NewServer(o, prometheus.DefaultGatherer, rt.logger)
		go func() {
			if err := srv.Start(ctx, rt.cfg.Server.Port); err != nil {
				rt.logger.Error("API server stopped", zap.Error(err))
			}
		}()
	}

	return tui.Start(ctx, o, Version)
}

func runServe(cctx *cli.Context) error {
	rt, err := setup(cctx, false, false)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	o := app.Build(rt.cfg, rt.logger, prometheus.DefaultRegisterer)
	srv := server.NewServer(o, prometheus.DefaultGatherer, rt.logger)

	fmt.Printf("Running in server mode on port %d...\n", rt.cfg.Server.Port)
	return srv.Start(ctx, rt.cfg.Server.Port)
}

func runRoast(cctx *cli.Context) error {
	if cctx.NArg() != 1 {
		return cli.Exit("usage: roaster roast <address>", 2)
	}
	rt, err := setup(cctx, true, false)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	o := app.Build(rt.cfg, rt.logger, nil)
	lang := o.State().Language

	if err := o.AnalyzeAddress(cctx.Context, cctx.Args().First()); err != nil {
		var ve *address.ValidationError
		if errors.As(err, &ve) {
			key := i18n.InvalidAddress
			if ve.Reason == address.ReasonEmpty {
				key = i18n.AddressRequired
			}
			return cli.Exit(i18n.T(lang, key), 1)
		}
		return cli.Exit(i18n.T(lang, i18n.Error), 1)
	}

	st := o.State()
	if cctx.Bool("json") {
		return printJSON(struct {
			Snapshot *models.PortfolioSnapshot `json:"snapshot"`
			Roast    *models.RoastResult       `json:"roast"`
		}{st.Snapshot, st.Roast})
	}

	snap := st.Snapshot
	fmt.Printf("%s %s\n", i18n.T(lang, i18n.AnalyzingWallet), address.ShortForm(snap.Address, 12, 12))
	for _, tok := range snap.Tokens {
		fmt.Printf("  %-10s %18s %12s\n", utils.TruncateString(tok.Name, 10), utils.FormatFloat(tok.Amount, 4), utils.FormatUSD(tok.Value))
	}
	fmt.Printf("  Total %s, %d NFTs, %d transactions\n\n", utils.FormatUSD(snap.TotalValue), snap.NFTCount, snap.TransactionCount)
	fmt.Println(strings.TrimSpace(st.Roast.Text))
	if st.Roast.Failed {
		return cli.Exit("", 1)
	}
	return nil
}

func runCheck(cctx *cli.Context) error {
	asJSON := cctx.Bool("json")
	rt, err := setup(cctx, true, true)
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	if !asJSON {
		fmt.Printf("Testing configuration at: %s\n", rt.path)
	}
	report := app.Check(cctx.Context, rt.cfg, rt.path, cctx.Bool("dry-run"), rt.logger)

	failed := !report.ValidStructure
	for _, ep := range report.Endpoints {
		if ep.Status == "error" {
			failed = true
		}
	}

	if asJSON {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}
	if failed {
		return cli.Exit("", 1)
	}
	return nil
}

func printReport(report models.CheckReport) {
	if !report.ValidStructure {
		for _, msg := range report.StructureErrors {
			fmt.Printf("Error: %s\n", msg)
		}
		return
	}
	fmt.Printf("Modes: wallet=%s portfolio=%s generation=%s\n", report.WalletMode, report.PortfolioMode, report.GenerationMode)
	for _, ep := range report.Endpoints {
		switch ep.Status {
		case "ok":
			fmt.Printf("  %-15s %s ... OK (%s)\n", ep.Name, ep.URL, ep.Latency)
		case "error":
			fmt.Printf("  %-15s %s ... Failed: %s\n", ep.Name, ep.URL, ep.Error)
		default:
			fmt.Printf("  %-15s not configured\n", ep.Name)
		}
	}
	if report.ConfigUpdated {
		if report.DryRun {
			fmt.Println("Configuration would be normalised. Dry run enabled: Configuration NOT saved.")
		} else if report.SaveError != "" {
			fmt.Printf("Failed to save config: %s\n", report.SaveError)
		} else {
			fmt.Println("Configuration saved successfully.")
		}
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
