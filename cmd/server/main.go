package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helpdeskhq/support-router/agents/escalation"
	"github.com/helpdeskhq/support-router/agents/faq"
	"github.com/helpdeskhq/support-router/agents/orders"
	"github.com/helpdeskhq/support-router/api"
	"github.com/helpdeskhq/support-router/classify"
	"github.com/helpdeskhq/support-router/config"
	"github.com/helpdeskhq/support-router/conversation"
	"github.com/helpdeskhq/support-router/kb"
	"github.com/helpdeskhq/support-router/llm"
	"github.com/helpdeskhq/support-router/logger"
	"github.com/helpdeskhq/support-router/orderstore"
	"github.com/helpdeskhq/support-router/resilience"
	"github.com/helpdeskhq/support-router/route"
	"github.com/helpdeskhq/support-router/store"
	"github.com/helpdeskhq/support-router/tickets"
	"github.com/helpdeskhq/support-router/types"
	"github.com/helpdeskhq/support-router/websocket"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (default configs/router.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config load failed", err)
	}

	if lvl, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetGlobalLevel(lvl)
	}
	logger.SetGlobalComponent("server")
	log := logger.GetLogger()

	// Optional model client, breaker-guarded so an outage degrades to the
	// rule-based path instead of stalling turns.
	var guarded *llm.GuardedClient
	var classifier classify.Classifier = classify.NewRuleClassifier()
	if client, err := llm.NewFromEnv(); err == nil {
		guarded = llm.Guard(client, 5, 30*time.Second)
		classifier = classify.NewModelAssisted(guarded)
		log.Infof("model-assisted classification enabled (provider=%s)", cfg.LLM.Provider)
	} else {
		log.Infof("model client disabled, using rule-based classification: %v", err)
	}

	// Optional persistence collaborators. Both are best-effort; the engine
	// runs fully in-memory without them.
	var ticketStore tickets.Store
	if cfg.Storage.PostgresDSN != "" {
		pg, err := store.NewTicketStore(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatal("postgres connection failed", err)
		}
		ticketStore = store.WithRetries(pg)
		log.Infof("ticket persistence enabled")
	}

	var snaps conversation.Snapshotter
	if cfg.Storage.RedisAddr != "" {
		rs, err := store.NewSessionStoreFromAddr(context.Background(), cfg.Storage.RedisAddr, os.Getenv("REDIS_PASSWORD"), 0, cfg.SessionTTL())
		if err != nil {
			log.Fatal("redis connection failed", err)
		}
		snaps = rs
		log.Infof("session snapshots enabled (ttl=%s)", cfg.SessionTTL())
	}

	sessions := conversation.NewManager(snaps)
	ticketMgr := tickets.NewManager(ticketStore)

	faqEntries := kb.SeedFAQs()
	for _, f := range cfg.FAQs {
		faqEntries = append(faqEntries, kb.Entry{
			Question: f.Question,
			Answer:   f.Answer,
			Category: f.Category,
			Keywords: f.Keywords,
		})
	}

	var escClient llm.Client
	if guarded != nil {
		escClient = guarded
	}
	esc := escalation.NewAgent(sessions, ticketMgr, escClient)
	ord := orders.NewAgent(sessions, orderstore.New(orderstore.SeedOrders()))
	faqAgent := faq.NewAgent(kb.New(faqEntries))

	engine := route.NewEngine(classifier, sessions, ticketMgr, esc, ord, faqAgent)
	engine.Policy().AddEscalationKeywords(cfg.Escalation.ExtraKeywords...)
	engine.Policy().AddHighSeverityKeywords(cfg.Escalation.HighSeverityKeywords...)

	stream := websocket.NewLogStream(cfg.Server.AllowedOrigins)
	stream.Start()
	engine.SetLogSink(stream)

	server := api.NewServer(engine, esc, stream)
	server.AddServiceCheck("engine", func() types.ServiceStatus {
		return types.ServiceStatus{Name: "engine", Status: types.StatusUp, LastCheck: time.Now().Format(time.RFC3339)}
	})
	if guarded != nil {
		server.AddServiceCheck("llm", func() types.ServiceStatus {
			st := types.ServiceStatus{Name: "llm", Status: types.StatusUp, LastCheck: time.Now().Format(time.RFC3339)}
			if guarded.State() == resilience.StateOpen {
				st.Status = types.StatusDown
				st.Error = "circuit open"
			}
			return st
		})
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("shutting down")
	stream.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("shutdown error", err)
	}
}
