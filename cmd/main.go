package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"

	"github.com/kalinova-sec/secledger/config"
	"github.com/kalinova-sec/secledger/ledger"
	"github.com/kalinova-sec/secledger/metrics"
	"github.com/kalinova-sec/secledger/monitor"
	"github.com/kalinova-sec/secledger/simulate"
)

var errChainInvalid = errors.New("chain integrity check failed")

func main() {
	if err := run(os.Args[1:]); err != nil {
		pterm.Error.Println(err.Error())
		if errors.Is(err, errChainInvalid) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage() {
	pterm.Println("usage: secledger [-config file] <command> [flags]")
	pterm.Println()
	pterm.Println("commands:")
	pterm.Println("  demo     log simulated events and print the audit trail")
	pterm.Println("  monitor  record simulated events and verify the chain until interrupted")
	pterm.Println("  verify   verify an exported chain")
}

func run(args []string) error {
	fs := flag.NewFlagSet("secledger", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	fs.Usage = usage
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "demo":
		return runDemo(cfg, logger, rest)
	case "monitor":
		return runMonitor(cfg, logger, rest)
	case "verify":
		return runVerify(cfg, logger, rest)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newLogger(level string) *slog.Logger {
	levels := map[string]pterm.LogLevel{
		"debug": pterm.LogLevelDebug,
		"info":  pterm.LogLevelInfo,
		"warn":  pterm.LogLevelWarn,
		"error": pterm.LogLevelError,
	}
	handler := pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(levels[level]))
	return slog.New(handler)
}

func newLedger(cfg config.Config, logger *slog.Logger, opts ...ledger.Option) (*ledger.Ledger, error) {
	signer, err := cfg.NewSigner()
	if err != nil {
		return nil, err
	}
	if s, ok := signer.(*ledger.SchnorrSigner); ok {
		pub, err := s.PublicKey()
		if err != nil {
			return nil, err
		}
		pterm.Info.Printfln("Signing with Schnorr public key %s", hex.EncodeToString(pub))
	}
	opts = append([]ledger.Option{
		ledger.WithDifficulty(cfg.Difficulty),
		ledger.WithLogger(logger),
	}, opts...)
	return ledger.NewLedger(signer, opts...)
}

func runDemo(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	events := fs.Int("events", 10, "number of events to log")
	seed := fs.Uint64("seed", uint64(time.Now().UnixNano()), "simulation seed")
	exportPath := fs.String("export", "", "write the chain to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	l, err := newLedger(cfg, logger)
	if err != nil {
		return err
	}
	printBanner()

	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Mining %d blocks at difficulty %d ...", *events, l.Difficulty()))
	for i, e := range simulate.NewGenerator(1, *seed).Batch(*events) {
		spinner.UpdateText(fmt.Sprintf("Mining block %d/%d ...", i+1, *events))
		if _, err := l.LogSecurityEvent(e); err != nil {
			spinner.Fail()
			return err
		}
	}
	spinner.Success(fmt.Sprintf("Recorded %d events", *events))

	if err := printAudit(l.AuditEvents(ledger.AuditFilter{})); err != nil {
		return err
	}
	if err := reportVerification(l); err != nil {
		return err
	}
	if *exportPath != "" {
		return exportChain(l, *exportPath)
	}
	return nil
}

func runMonitor(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	exportPath := fs.String("export", "", "write the chain to this file on shutdown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	collector := metrics.NewCollector()
	l, err := newLedger(cfg, logger, ledger.WithObserver(collector))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		pterm.Info.Printfln("Serving metrics on %s/metrics", cfg.MetricsAddr)
	}

	m := monitor.New(l,
		monitor.WithInterval(cfg.MonitorInterval),
		monitor.WithProducer(simulate.NewGenerator(cfg.EventRate, uint64(time.Now().UnixNano()))),
		monitor.WithLogger(logger),
		monitor.WithAlert(func(err error) {
			pterm.Error.Printfln("ALERT: ledger integrity compromised: %v", err)
		}),
	)
	pterm.Info.Printfln("Monitoring every %s, press Ctrl+C to stop", cfg.MonitorInterval)
	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	pterm.Success.Printfln("Recorded %d blocks", l.Len())
	if *exportPath != "" {
		return exportChain(l, *exportPath)
	}
	return nil
}

func runVerify(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	pubkey := fs.String("pubkey", "", "hex encoded Schnorr public key that signed the chain")
	strict := fs.Bool("strict", false, "also require every block to meet the difficulty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: secledger verify [-pubkey hex] [-strict] <file>")
	}

	signer, err := verifySigner(cfg, *pubkey)
	if err != nil {
		return err
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	opts := []ledger.Option{ledger.WithLogger(logger)}
	if *strict {
		opts = append(opts, ledger.WithDifficultyCheck())
	}
	l, err := ledger.Import(f, signer, opts...)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("Loaded %d blocks from %s", l.Len(), fs.Arg(0))
	return reportVerification(l)
}

// verifySigner picks the signer able to check an exported chain. A fresh
// Schnorr key could never verify old signatures, so schnorr needs -pubkey.
func verifySigner(cfg config.Config, pubkey string) (ledger.Signer, error) {
	if pubkey != "" {
		raw, err := hex.DecodeString(pubkey)
		if err != nil {
			return nil, fmt.Errorf("invalid public key: %w", err)
		}
		return ledger.NewSchnorrVerifier(raw)
	}
	if cfg.Signer == config.SignerSchnorr {
		return nil, errors.New("verifying a schnorr signed chain requires -pubkey")
	}
	return cfg.NewSigner()
}

func reportVerification(l *ledger.Ledger) error {
	if err := l.Verify(); err != nil {
		printVerification(err, "hash chain")
		return fmt.Errorf("%w: %v", errChainInvalid, err)
	}
	printVerification(nil, "hash chain")
	if err := l.VerifySignatures(); err != nil {
		printVerification(err, "signatures")
		return fmt.Errorf("%w: %v", errChainInvalid, err)
	}
	printVerification(nil, "signatures")
	return nil
}

func exportChain(l *ledger.Ledger, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := l.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	pterm.Success.Printfln("Chain exported to %s", path)
	return nil
}
