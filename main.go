package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai_creation_broker/config"
	"ai_creation_broker/dispatch"
	"ai_creation_broker/document"
	"ai_creation_broker/generator"
	"ai_creation_broker/identity"
	"ai_creation_broker/media"
	"ai_creation_broker/provider"
	"ai_creation_broker/server"
	"ai_creation_broker/store"
	"ai_creation_broker/store/memory"
	"ai_creation_broker/store/mongo"
	"ai_creation_broker/store/sqlite"
	"ai_creation_broker/usage"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	addr := flag.String("addr", "", "http listen address (overrides config.server_addr)")
	verbose := flag.Bool("v", false, "enable debug logs")
	mock := flag.Bool("mock", false, "use offline mock providers and the in-memory store")
	mintFor := flag.String("mint-token", "", "print a bearer token for this user id and exit")
	plan := flag.String("plan", "free", "plan for -mint-token: free or premium")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configPath, *addr, *mock, *mintFor, *plan, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, addr string, mock bool, mintFor, plan string, logger *slog.Logger) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if mock {
		cfg.Store.Driver = "memory"
	}
	if addr != "" {
		cfg.ServerAddr = addr
	}
	if err := cfg.Validate(mock || mintFor != ""); err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ids, err := identity.NewService(cfg.Auth.JWTSecret, st)
	if err != nil {
		return err
	}
	if mintFor != "" {
		tok, err := ids.Mint(mintFor, usage.ParsePlan(plan), 0)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	}

	adapters, err := buildAdapters(cfg, mock, logger)
	if err != nil {
		return err
	}
	ledger := usage.NewLedger(ids, usage.WithLogger(logger))
	d, err := dispatch.New(adapters, st, ledger,
		dispatch.WithLogger(logger),
		dispatch.WithTimeout(time.Duration(cfg.ProviderTimeout)),
	)
	if err != nil {
		return err
	}
	srv, err := server.New(d, ids, st, server.Options{
		Addr:           cfg.ServerAddr,
		TLSDomain:      cfg.TLSDomain,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-stop:
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.New(cfg.DSN)
	case "mongo":
		return mongo.Connect(ctx, cfg.DSN, cfg.Database)
	default:
		return nil, fmt.Errorf("store driver %s not supported", cfg.Driver)
	}
}

func buildAdapters(cfg config.Config, mock bool, logger *slog.Logger) (*provider.Registry, error) {
	var (
		llm       generator.LLMClient
		images    media.ImageGenerator
		storage   media.Storage
		extractor document.Extractor = document.PDFExtractor{}
	)
	if mock {
		llm = generator.MockLLM{}
		images = media.MockGenerator{}
		storage = &media.MockStorage{}
	} else {
		var err error
		if llm, err = buildLLM(cfg.LLM); err != nil {
			return nil, err
		}
		if images, err = media.NewClipDrop(cfg.ClipDrop, nil, logger); err != nil {
			return nil, err
		}
		if storage, err = media.NewCloudinary(cfg.Cloudinary, logger); err != nil {
			return nil, err
		}
	}
	agent, err := generator.NewAgent(llm)
	if err != nil {
		return nil, err
	}
	name := textProviderName(cfg.LLM)
	return provider.NewRegistry(
		provider.TextArticle{Writer: agent, Name: name},
		provider.BlogTitles{Writer: agent, Name: name},
		provider.ResumeReview{Extractor: extractor, Writer: agent, CharLimit: cfg.ResumeCharLimit, Name: name},
		provider.ImageGenerate{Generator: images, Storage: storage},
		provider.BackgroundRemove{Storage: storage},
		provider.ObjectRemove{Storage: storage},
	)
}

func buildLLM(cfg *config.LLMConfig) (generator.LLMClient, error) {
	if cfg == nil || cfg.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key in config")
	}
	settings := &generator.LLMSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	}
	switch cfg.Provider {
	case "groq":
		if settings.BaseURL == "" {
			settings.BaseURL = generator.GroqBaseURL
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "openai":
		if settings.Model == "" {
			settings.Model = "gpt-4o-mini"
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func textProviderName(cfg *config.LLMConfig) string {
	if cfg == nil {
		return provider.DefaultTextProvider
	}
	switch cfg.Provider {
	case "openai":
		return "OpenAI"
	case "deepseek":
		return "DeepSeek"
	default:
		return provider.DefaultTextProvider
	}
}
