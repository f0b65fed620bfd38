package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/seekerror/chessd/pkg/config"
	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/chessd/pkg/server"
	"github.com/seekerror/logw"
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: chessd [options]

chessd is a multi-tenant online chess server.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	cfg := config.Default()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.New(cfg, server.SystemClock{}, idgen.UUIDSource{})
	if err := s.Run(ctx); err != nil {
		logw.Exitf(ctx, "chessd: %v", err)
	}
}
