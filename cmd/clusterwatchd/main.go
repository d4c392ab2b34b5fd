package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/clusterwatch/clusterwatch/internal/aggregator"
	"github.com/clusterwatch/clusterwatch/internal/config"
	"github.com/clusterwatch/clusterwatch/internal/hub"
	"github.com/clusterwatch/clusterwatch/internal/metrics"
	"github.com/clusterwatch/clusterwatch/internal/provider"
	"github.com/clusterwatch/clusterwatch/internal/sshprobe"
	"github.com/clusterwatch/clusterwatch/internal/wsserver"

	"github.com/clusterwatch/clusterwatch"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config.toml")
	staticDir := flag.String("static", "static", "directory of static dashboard assets")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("clusterwatchd: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth, err := buildAuth(cfg.Authentication)
	if err != nil {
		log.Fatalf("clusterwatchd: %v", err)
	}

	h := hub.New()
	ws := wsserver.New(h)

	wsStop := make(chan struct{})
	go ws.Run(wsStop)
	go h.Run(ctx)

	for i, srv := range cfg.Servers {
		probe := sshprobe.New(srv.Username, auth, srv.Hostname, 0)
		plugins := metrics.DefaultPlugins(srv.Disk, srv.NetworkInterface, srv.Filesystem)
		p := provider.New(probe, plugins)
		agg := aggregator.New(h, p, probe, uint8(i))
		go agg.Run(ctx)
	}

	e := clusterwatch.SetupEchoServer()
	clusterwatch.SetupWebSocketEndpoint(e, "/ws/", ws)
	clusterwatch.SetupFileEndpoint(e, "/", *staticDir)

	addr := cfg.Addr()
	go func() {
		log.Printf("clusterwatchd listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("clusterwatchd: bind failed on %s: %v", addr, err)
		}
	}()

	<-ctx.Done()
	log.Println("clusterwatchd: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("clusterwatchd: shutdown error: %v", err)
	}
	close(wsStop)
}

const gracefulShutdownTimeout = 5 * time.Second

func buildAuth(a config.Authentication) (sshprobe.AuthMethod, error) {
	switch a.Method {
	case "ssh_agent":
		return sshprobe.SshAgentAuth{}, nil
	case "pub_key":
		return sshprobe.PubKeyAuth{
			PrivateKeyPath: a.PrivateKey,
			PublicKeyPath:  a.PublicKey,
			Passphrase:     a.Passphrase,
		}, nil
	default:
		return nil, fmt.Errorf("unknown authentication method %q", a.Method)
	}
}
