package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/pricechat"
	"github.com/fwojciec/pricechat/aiservice"
	bt "github.com/fwojciec/pricechat/bubbletea"
	"github.com/fwojciec/pricechat/chat"
	"github.com/fwojciec/pricechat/relay"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd(getenv func(string) string) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "pricechat",
		Short: "Chat with the house-price assistant",
		Long: `pricechat streams answers from the house-price assistant into a terminal UI.

Press Enter to ask, Esc to stop an answer, Ctrl+C to quit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadDotEnv()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd, getenv)
			if err != nil {
				return err
			}
			return runChat(cmd, cfg)
		},
	}
	f.registerPersistent(root)

	ask := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask one question and print the streamed answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd, getenv)
			if err != nil {
				return err
			}
			return runAsk(cmd, cfg, strings.Join(args, " "))
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the streaming chat endpoint backed by an LLM provider",
		Long: `serve runs POST /ai/chat/stream locally, answering with an OpenAI-compatible
Anthropic or Gemini model. Useful for developing against the client without the AI service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd, getenv)
			if err != nil {
				return err
			}
			return runServe(cmd, cfg, providerKeys(getenv))
		},
	}
	f.registerServe(serve)

	root.AddCommand(ask, serve)
	return root
}

func newSession(cfg config, opts ...chat.Option) *chat.Session {
	transport := aiservice.New(cfg.Server, aiservice.WithUserAgent("pricechat"))
	return chat.New(transport, append([]chat.Option{chat.WithToken(cfg.Token)}, opts...)...)
}

func runChat(cmd *cobra.Command, cfg config) error {
	log, closeLog, err := newFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	sink := bt.NewSink()
	session := newSession(cfg, chat.WithSink(sink), chat.WithLogger(log))
	defer func() {
		session.Cancel()
		session.Wait()
	}()

	log.WithField("server", cfg.Server).Info("starting TUI")
	m := bt.New(session, pricechat.DefaultTheme())
	if err := bt.Run(cmd.Context(), m, sink); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

func runAsk(cmd *cobra.Command, cfg config, question string) error {
	log, err := newStderrLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout())
	session := newSession(cfg, chat.WithSink(p), chat.WithLogger(log))
	if err := session.Submit(question); err != nil {
		return err
	}
	stop := context.AfterFunc(cmd.Context(), func() { session.Cancel() })
	defer stop()
	session.Wait()

	return p.finish(session.Snapshot())
}

func runServe(cmd *cobra.Command, cfg config, envKeys map[string]string) error {
	log, err := newStderrLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	provider, err := resolveProvider(ctx, cfg.Serve, envKeys)
	if err != nil {
		return err
	}
	if len(cfg.Serve.Tokens) == 0 {
		log.Warn("no tokens configured: accepting unauthenticated requests")
	}

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           relay.NewHandler(provider, relay.WithTokens(cfg.Serve.Tokens...), relay.WithLogger(log)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Serve.Addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("stopped")
	return nil
}
