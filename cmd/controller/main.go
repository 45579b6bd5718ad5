// Command controller is the composition root for the HFT bot controller:
// it wires the bootstrap config, a Market Access Port implementation,
// the strategy registry, the telemetry router, and the bot supervisor,
// then blocks on a signal-driven root context.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tradepulse/hft-controller/internal/bot"
	"github.com/tradepulse/hft-controller/internal/config"
	"github.com/tradepulse/hft-controller/internal/market"
	"github.com/tradepulse/hft-controller/internal/market/memport"
	"github.com/tradepulse/hft-controller/internal/market/mt5port"
	"github.com/tradepulse/hft-controller/internal/strategy"
	"github.com/tradepulse/hft-controller/internal/supervisor"
	"github.com/tradepulse/hft-controller/internal/telemetry"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	path := os.Getenv("TRADEPULSE_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port, closePort := newPort(cfg)
	if closePort != nil {
		defer closePort()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := telemetry.NewMetrics(reg)
	router := telemetry.NewRouter(metrics)

	go serveMetrics(cfg.Telemetry.MetricsAddr, reg)
	go logEvents(ctx, router.Subscribe(1024))

	strategies := strategy.NewRegistry()
	sup := supervisor.New(ctx, port, strategies, router, cfg.SpreadLimit, log.Default())

	// The REST+push transport that normally drives Start/Stop/ListActive is
	// an external collaborator; TRADEPULSE_BOTS lets an operator seed bots
	// from a JSON file at boot instead.
	if botsPath := os.Getenv("TRADEPULSE_BOTS"); botsPath != "" {
		startSeedBots(sup, botsPath)
	}

	log.Printf("controller ready, metrics on %s", cfg.Telemetry.MetricsAddr)

	<-ctx.Done()
	log.Println("shutdown signal received, draining bot loops")
	// sup's bots all derive from ctx, which is already Done; give
	// in-flight order submissions a moment to finish, since cancellation
	// never interrupts one mid-flight.
	time.Sleep(2 * time.Second)
	log.Println("controller stopped")
}

// newPort selects the live gRPC-backed Market Access Port when credentials
// are configured, or a deterministic in-memory fake otherwise (useful for
// demoing the controller without a broker terminal).
func newPort(cfg config.Config) (market.Port, func()) {
	if cfg.MarketAccess.Login == 0 {
		log.Println("no market_access.login configured, using in-memory fake port")
		return memport.New(), nil
	}
	acc, err := mt5port.New(cfg.MarketAccess.Login, cfg.MarketAccess.Password, cfg.MarketAccess.GRPCServer)
	if err != nil {
		log.Fatalf("market access port dial error: %v", err)
	}
	return market.NewResilient(acc, "mt5"), func() { _ = acc.Close() }
}

// startSeedBots decodes a JSON array of bot configs (legacy sl/tp aliases
// included) and starts each one, logging rather than aborting on a config
// the supervisor rejects.
func startSeedBots(sup *supervisor.Supervisor, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("seed bots: read %s: %v", path, err)
		return
	}
	var configs []bot.Config
	if err := json.Unmarshal(data, &configs); err != nil {
		log.Printf("seed bots: parse %s: %v", path, err)
		return
	}
	for _, cfg := range configs {
		id, err := sup.Start(cfg)
		if err != nil {
			log.Printf("seed bots: %s/%s rejected: %v", cfg.Symbol, cfg.StrategyName, err)
			continue
		}
		log.Printf("seed bots: started bot %d (%s/%s)", id, cfg.Symbol, cfg.StrategyName)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}

// logEvents drains the router until ctx is done, standing in for the
// out-of-scope REST+push transport that would otherwise consume these
// events.
func logEvents(ctx context.Context, events <-chan telemetry.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			log.Printf("[event] bot=%d type=%s status=%s", ev.BotID, ev.Type, ev.Status)
		}
	}
}
