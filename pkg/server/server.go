// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/pkg/service/diag"
	"github.com/binkynet/PinWorker/pkg/service/worker"
)

// Config for the HTTP server.
type Config struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests
	HTTPPort int
	// Port to listen on for SSH requests (0 disables SSH)
	SSHPort int
	// Path of the SSH host key (created when missing)
	HostKeyPath string
}

// Server runs the HTTP & SSH servers for the service.
type Server struct {
	Config
	log     zerolog.Logger
	ui      UI
	service Service
}

type UI interface {
	// Handler creates the Bubble Tea model for an incoming SSH session.
	Handler(s ssh.Session) (tea.Model, []tea.ProgramOption)
}

// Service is the part of the pin worker exposed by the server.
type Service interface {
	// ProcessLine runs a single message line through the command pipeline.
	ProcessLine(ctx context.Context, source, line string) worker.Result
	// Reporter returns the diagnostic channel.
	Reporter() *diag.Reporter
}

// New configures a new Server.
func New(cfg Config, log zerolog.Logger, ui UI, service Service) (*Server, error) {
	return &Server{
		Config:  cfg,
		log:     log.With().Str("component", "server").Logger(),
		ui:      ui,
		service: service,
	}, nil
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	// Prepare HTTP listener
	log := s.log
	httpAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
	httpLis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on address %s: %w", httpAddr, err)
	}

	// Prepare HTTP server
	httpSrv := http.Server{
		Handler: s.newRouter(),
	}

	// Prepare SSH server
	var sshServer *ssh.Server
	var sshAddr string
	if s.SSHPort != 0 && s.ui != nil {
		sshAddr = net.JoinHostPort(s.Host, strconv.Itoa(s.SSHPort))
		hostKeyPath := s.HostKeyPath
		if hostKeyPath == "" {
			hostKeyPath = ".ssh/id_ed25519"
		}
		sshServer, err = wish.NewServer(
			wish.WithAddress(sshAddr),
			// A keypair is created in the given path if it doesn't exist yet.
			wish.WithHostKeyPath(hostKeyPath),
			wish.WithMiddleware(
				bubbletea.Middleware(s.ui.Handler),
				// The last item in the chain is the first to be called.
				activeterm.Middleware(),
				logging.Middleware(),
			),
		)
		if err != nil {
			httpLis.Close()
			return fmt.Errorf("could not start SSH server: %w", err)
		}
	}

	// Serve apis
	log.Debug().Str("address", httpAddr).Msg("Serving HTTP")
	go func() {
		if err := httpSrv.Serve(httpLis); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to serve HTTP server")
		}
		log.Debug().Str("address", httpAddr).Msg("Done Serving HTTP")
	}()
	// Serve UI
	if sshServer != nil {
		log.Debug().Str("address", sshAddr).Msg("Serving SSH")
		go func() {
			if err := sshServer.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
				log.Error().Err(err).Msg("failed to serve SSH server")
			}
			log.Debug().Str("address", sshAddr).Msg("Done Serving SSH")
		}()
	}

	// Wait until context closed
	<-ctx.Done()

	log.Info().Msg("Closing servers")
	httpSrv.Shutdown(context.Background())
	if sshServer != nil {
		sshServer.Shutdown(context.Background())
	}

	return nil
}

// newRouter builds the HTTP routes.
func (s *Server) newRouter() *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.GET("/health", echo.WrapHandler(http.HandlerFunc(healthHandler)))
	router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	router.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	v1 := router.Group("/api/v1")
	v1.POST("/command", s.handleCommand)
	v1.GET("/pins", handlePins)
	v1.GET("/events", s.handleEvents)
	v1.GET("/stats", s.handleStats)
	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "OK")
}
