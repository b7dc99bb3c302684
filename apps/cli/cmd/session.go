package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/abdul-hamid-achik/fetchwrap/packages/auth/awsv4"
	"github.com/abdul-hamid-achik/fetchwrap/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/fetchwrap/packages/core/config"
	"github.com/abdul-hamid-achik/fetchwrap/packages/core/env"
	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/abdul-hamid-achik/fetchwrap/packages/history"
	"github.com/abdul-hamid-achik/fetchwrap/packages/hooks"
	"github.com/abdul-hamid-achik/fetchwrap/packages/logger"
	"github.com/abdul-hamid-achik/fetchwrap/packages/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// session is everything one command invocation needs.
type session struct {
	cfg       *config.Config
	logger    *zap.Logger
	client    *fetch.Client
	latency   *hooks.Latency
	history   *history.Store
	formatter output.Formatter
	// sent is the last request as the hooks left it
	sent atomic.Pointer[fetch.RequestConfig]
}

// loadConfig reads .env, the config file and the flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if envFileFlag != "" {
		if _, err := env.LoadAndExportDotEnv(envFileFlag); err != nil {
			return nil, configError(fmt.Errorf("failed to load env file: %w", err))
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if _, err := env.LoadAndExportDotEnv(".env"); err != nil {
			return nil, configError(fmt.Errorf("failed to load .env: %w", err))
		}
	}

	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, configError(err)
	}

	overrides, err := flagConfig(cmd)
	if err != nil {
		return nil, usageError(err)
	}
	cfg = cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, configError(err)
	}
	return cfg, nil
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		logger: logger.New(cfg.LogLevel, cmd.ErrOrStderr()),
	}

	s.formatter, err = output.New(cfg.Output, output.Options{
		Verbose: cfg.GetVerbose(),
		NoColor: cfg.GetNoColor(),
		Query:   queryFlag,
	})
	if err != nil {
		return nil, usageError(err)
	}

	if cfg.HistoryPath != "" {
		s.history, err = history.Open(cfg.HistoryPath, history.WithLogger(s.logger))
		if err != nil {
			return nil, configError(err)
		}
	}

	s.client, s.latency, err = buildClient(cfg, s.logger, s.history)
	if err != nil {
		s.Close()
		return nil, configError(err)
	}
	err = s.client.UseAfter(func(_ context.Context, resp *fetch.Response, req *fetch.RequestConfig) (*fetch.Response, error) {
		s.sent.Store(req)
		return resp, nil
	})
	if err != nil {
		s.Close()
		return nil, configError(err)
	}
	return s, nil
}

func (s *session) Close() {
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.Warn("failed to close history", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

// buildClient wires cfg into a client. Before hooks run in this order:
// default headers, oauth2 token, request id, rate limit, request log.
// After hooks: latency, response log, history, then --fail so failed
// responses are still recorded.
func buildClient(cfg *config.Config, log *zap.Logger, store *history.Store) (*fetch.Client, *hooks.Latency, error) {
	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, nil, err
	}

	latency := hooks.NewLatency()
	client := fetch.New(
		fetch.WithBaseURL(cfg.BaseURL),
		fetch.WithTransport(transport),
		fetch.WithLogger(log),
	)

	var errs []error
	if len(cfg.Headers) > 0 {
		errs = append(errs, client.UseBefore(hooks.SetHeaders(cfg.Headers)))
	}
	if cfg.OAuth2 != nil {
		provider, err := newOAuth2Provider(cfg.OAuth2, transport, log)
		if err != nil {
			return nil, nil, err
		}
		errs = append(errs, client.UseBefore(hooks.BearerToken(provider.TokenSource())))
	}
	if cfg.RequestIDHeader != "" {
		errs = append(errs, client.UseBefore(hooks.RequestID(cfg.RequestIDHeader)))
	}
	if cfg.RateLimit > 0 {
		errs = append(errs, client.UseBefore(hooks.RateLimit(hooks.NewLimiter(cfg.RateLimit, cfg.RateBurst))))
	}
	errs = append(errs,
		client.UseBefore(hooks.LogRequest(log)),
		client.UseAfter(latency.Hook()),
		client.UseAfter(hooks.LogResponse(log)),
	)
	if store != nil {
		errs = append(errs, client.UseAfter(store.Hook()))
	}
	if cfg.GetFail() {
		errs = append(errs, client.UseAfter(hooks.RequireSuccess()))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, nil, err
	}
	return client, latency, nil
}

// newOAuth2Provider fetches tokens over the same transport as the requests,
// without the request hooks.
func newOAuth2Provider(c *config.OAuth2Config, transport fetch.Transport, log *zap.Logger) (*oauth2.Provider, error) {
	oc := &oauth2.Config{
		TokenURL:     c.TokenURL,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       c.Scopes,
		Username:     c.Username,
		Password:     c.Password,
		GrantType:    oauth2.GrantType(c.GrantType),
	}
	if err := oc.Validate(); err != nil {
		return nil, err
	}
	tokenClient := fetch.New(fetch.WithTransport(transport), fetch.WithLogger(log))
	return oauth2.NewProvider(oc, tokenClient), nil
}

func buildTransport(cfg *config.Config) (fetch.Transport, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	opts := []fetch.TransportOption{
		fetch.WithTimeout(timeout),
		fetch.WithValidateSSL(cfg.GetValidateSSL()),
		fetch.WithProxy(cfg.Proxy),
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, fetch.WithMaxRedirects(cfg.MaxRedirects))
	}

	var transport fetch.Transport
	switch cfg.Transport {
	case config.TransportResty:
		transport = fetch.NewRestyTransport(timeout, opts...)
	default:
		transport = fetch.NewHTTPTransport(opts...)
	}

	if a := cfg.AWS; a != nil {
		signer, err := awsv4.NewTransport(transport, awsv4.Credentials{
			AccessKey:    a.AccessKey,
			SecretKey:    a.SecretKey,
			SessionToken: a.SessionToken,
			Region:       a.Region,
			Service:      a.Service,
		})
		if err != nil {
			return nil, err
		}
		transport = signer
	}
	return transport, nil
}

// readData resolves a --data value. "@path" reads the file, "@-" reads stdin.
func readData(data string, stdin io.Reader) (string, error) {
	if len(data) < 2 || data[0] != '@' {
		return data, nil
	}
	path := data[1:]
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read data file: %w", err)
	}
	return string(b), nil
}
