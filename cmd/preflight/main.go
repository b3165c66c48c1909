// Command preflight validates one operation envelope against a gate
// policy and prints the verdict as JSON.
//
// Usage:
//
//	preflight -config policy.yaml -op command_execution < params.json
//
// Exit codes: 0 allowed, 1 denied, 2 configuration or input error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/preflightd/preflight/pkg/audit"
	"github.com/preflightd/preflight/pkg/check"
	"github.com/preflightd/preflight/pkg/config"
	"github.com/preflightd/preflight/pkg/engine"
	"github.com/preflightd/preflight/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "preflight.yaml", "gate policy file")
		opType     = flag.String("op", "", "operation type to validate")
		auditOut   = flag.Bool("audit", false, "emit an audit record to stderr")
		otlp       = flag.Bool("otlp", false, "export telemetry via OTLP")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *opType == "" {
		logger.Error("missing -op flag")
		return 2
	}

	pol, err := config.Load(*configPath)
	if err != nil {
		logger.Error("policy load failed", "error", err)
		return 2
	}

	ctx := context.Background()
	opts := []engine.Option{}

	obsCfg := observability.DefaultConfig()
	obsCfg.Enabled = *otlp
	provider, err := observability.New(ctx, obsCfg)
	if err != nil {
		logger.Error("observability init failed", "error", err)
		return 2
	}
	defer func() {
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("observability shutdown failed", "error", err)
		}
	}()
	opts = append(opts, engine.WithRecorder(provider))

	if *auditOut {
		opts = append(opts, engine.WithAuditSink(audit.NewJSONSink(os.Stderr)))
	}

	eng, err := pol.Build(opts...)
	if err != nil {
		logger.Error("engine construction failed", "error", err)
		return 2
	}

	params, err := readParams(os.Stdin)
	if err != nil {
		logger.Error("parameter bundle read failed", "error", err)
		return 2
	}

	sctx, span := provider.Tracer().Start(ctx, "preflight.validate")
	v, err := eng.Validate(sctx, *opType, params)
	span.End()
	if err != nil {
		logger.Error("validation failed", "error", err)
		return 2
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error("verdict encode failed", "error", err)
		return 2
	}

	if !v.Allowed {
		return 1
	}
	return 0
}

func readParams(r io.Reader) (check.Params, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	var params check.Params
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("parse parameter bundle: %w", err)
	}
	return params, nil
}
