// Command pricechat is a terminal client for the house-price assistant's
// streaming chat endpoint.
//
// Usage:
//
//	pricechat [flags]                 interactive chat TUI
//	pricechat ask [flags] QUESTION    print one streamed answer to stdout
//	pricechat serve [flags]           run a local streaming endpoint backed by an LLM
//
// Configuration is read from flags, PRICECHAT_* environment variables (a
// .env file in the working directory is loaded first) and an optional YAML
// file, in that order of precedence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Getenv).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pricechat: %v\n", err)
		stop()
		os.Exit(1)
	}
}
