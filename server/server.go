// Package server runs an http.Handler over plain HTTP or TLS, with certificates from files or Let's Encrypt.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

const (
	DefaultPort    = "8080"
	DefaultTLSMode = TLSModeAutoCert

	TLSModeAutoCert = "autocert"
	TLSModeFile     = "file"

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type Server struct {
	Host string
	Port string
	TLS  ServerTLS
}

type ServerTLS struct {
	Enabled  bool
	Mode     string
	AutoCert *ServerTLSAutoCert
	CertFile string
	KeyFile  string
}

type ServerTLSAutoCert struct {
	CacheDir string
	Domains  []string
	Email    string
}

type UnknownTLSModeError struct {
	Mode string
}

func (err UnknownTLSModeError) Error() string {
	return fmt.Sprintf("unknown tls mode %q", err.Mode)
}

var ErrNoAutoCertDomains = errors.New("autocert needs at least one domain")

// Run serves handler until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(s.Host, s.Port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	var (
		serve    func() error
		shutdown []*http.Server
	)

	switch {
	case !s.TLS.Enabled:
		serve = srv.ListenAndServe

		slog.InfoContext(ctx, "server listening", "address", "http://"+srv.Addr)
	case s.TLS.Mode == TLSModeFile:
		serve = func() error { return srv.ListenAndServeTLS(s.TLS.CertFile, s.TLS.KeyFile) }

		slog.InfoContext(ctx, "server listening", "address", "https://"+srv.Addr)
	case s.TLS.Mode == TLSModeAutoCert:
		if s.TLS.AutoCert == nil || len(s.TLS.AutoCert.Domains) == 0 {
			return ErrNoAutoCertDomains
		}

		manager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache(s.TLS.AutoCert.CacheDir),
			HostPolicy: autocert.HostWhitelist(s.TLS.AutoCert.Domains...),
			Email:      s.TLS.AutoCert.Email,
		}

		srv.Addr = net.JoinHostPort(s.Host, "443")
		srv.TLSConfig = &tls.Config{
			GetCertificate: manager.GetCertificate,
			NextProtos:     []string{"h2", "http/1.1", "acme-tls/1"},
			MinVersion:     tls.VersionTLS12,
		}

		challenge := &http.Server{
			Addr:              net.JoinHostPort(s.Host, "80"),
			Handler:           manager.HTTPHandler(nil),
			ReadHeaderTimeout: readHeaderTimeout,
		}
		shutdown = append(shutdown, challenge)

		go func() {
			err := challenge.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.ErrorContext(ctx, "acme challenge server failed", "error", err)
			}
		}()

		serve = func() error { return srv.ListenAndServeTLS("", "") }

		slog.InfoContext(ctx, "server listening", "address", domainsToHTTPSAddress(s.TLS.AutoCert.Domains))
	default:
		return UnknownTLSModeError{Mode: s.TLS.Mode}
	}

	shutdown = append(shutdown, srv)

	errCh := make(chan error, 1)

	go func() {
		errCh <- serve()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var errs []error

	for _, httpServer := range shutdown {
		err := httpServer.Shutdown(shutdownCtx)
		if err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func domainsToHTTPSAddress(domains []string) string {
	addresses := make([]string, 0, len(domains))
	for _, domain := range domains {
		addresses = append(addresses, "https://"+domain)
	}

	return strings.Join(addresses, ", ")
}
