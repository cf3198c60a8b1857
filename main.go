package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"summarizer/pkg/cache"
	"summarizer/pkg/config"
	"summarizer/pkg/content"
	"summarizer/pkg/gemini"
	"summarizer/pkg/library"
	"summarizer/pkg/openaicompat"
	"summarizer/pkg/storage"
	"summarizer/pkg/summarize"
	"summarizer/pkg/surreal"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "add":
		cmdAdd(args)
	case "manual":
		cmdManual(args)
	case "list":
		cmdList(args)
	case "play":
		cmdPlay(args)
	case "delete":
		cmdDelete(args)
	case "voices":
		cmdVoices(args)
	case "settings":
		cmdSettings(args)
	case "clear":
		cmdClear(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `summarizer - save articles and videos as spoken summaries

Usage:
  summarizer add <url>                 Fetch, summarize and save a URL
  summarizer manual [flags] <url>      Summarize pasted text for a URL
  summarizer list [flags]              List saved summaries
  summarizer play [flags]              Narrate saved summaries
  summarizer delete <id>               Delete a summary
  summarizer voices [flags]            List or test voices
  summarizer settings [flags]          Show or change settings
  summarizer clear -yes                Delete every summary and setting

For help on specific command: summarizer <command> -h
`)
}

// app holds the wired dependencies shared by every command.
type app struct {
	cfg     *config.Config
	store   storage.Store
	library *library.Library
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context) *app {
	// Load config.yml
	cfg, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load .env for secrets
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	a := &app{cfg: cfg}
	a.store = a.openStore(ctx)

	if key := os.Getenv("UNIDOC_LICENSE_API_KEY"); key != "" {
		content.SetPDFLicenseKey(key)
	}

	proxies := make([]content.Proxy, 0, len(cfg.Content.Proxies))
	for _, p := range cfg.Content.Proxies {
		proxies = append(proxies, content.Proxy{Endpoint: p.Endpoint, Mode: content.ProxyMode(p.Mode)})
	}
	if len(proxies) == 0 {
		proxies = nil
	}

	processor := content.NewProcessor(content.ProcessorConfig{
		Proxies:        proxies,
		FetchTimeout:   cfg.FetchTimeout(),
		MaxBodySize:    cfg.Content.MaxBodyBytes,
		UserAgent:      cfg.Content.UserAgent,
		OEmbedEndpoint: cfg.Content.OEmbedEndpoint,
	})

	a.library = library.New(a.store, processor, a.newSummarizer(ctx))
	return a
}

func (a *app) openStore(ctx context.Context) storage.Store {
	var store storage.Store

	surrealHost := os.Getenv("SURREAL_DB_HOST")
	if surrealHost != "" {
		surrealNS := os.Getenv("SURREAL_DB_NAMESPACE")
		if surrealNS == "" {
			surrealNS = a.cfg.Storage.SurrealNS
		}
		surrealDB := os.Getenv("SURREAL_DB_DATABASE")
		if surrealDB == "" {
			surrealDB = a.cfg.Storage.SurrealDatabase
		}

		log.Printf("Connecting to SurrealDB at %s (NS: %s, DB: %s)", surreal.NormalizeHost(surrealHost), surrealNS, surrealDB)
		client, err := surreal.NewClient(surrealHost, os.Getenv("SURREAL_DB_USER"), os.Getenv("SURREAL_DB_PASS"), surrealNS, surrealDB)
		if err != nil {
			log.Fatalf("Failed to connect to SurrealDB: %v", err)
		}
		surrealStore := storage.NewSurrealStore(client)
		if err := surrealStore.Init(ctx); err != nil {
			log.Fatalf("Failed to initialize SurrealDB schema: %v", err)
		}
		store = surrealStore
	} else {
		fileStore, err := storage.NewFileStore(a.cfg.Storage.Path)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", a.cfg.Storage.Path, err)
		}
		store = fileStore
	}
	a.closers = append(a.closers, func() { store.Close() })

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" || !a.cfg.Storage.Cache {
		return store
	}
	c, err := cache.NewRedisCache(redisURL, "summarizer")
	if err != nil {
		log.Printf("Warning: Redis cache disabled: %v", err)
		return store
	}
	a.closers = append(a.closers, func() { c.Close() })
	return storage.NewCachedStore(store, c)
}

// geminiKey prefers the environment over the key saved with `settings -api-key`.
func (a *app) geminiKey(ctx context.Context) string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return storage.Setting(ctx, a.store, storage.KeyGeminiAPIKey, "")
}

func (a *app) newSummarizer(ctx context.Context) summarize.Summarizer {
	opts := []summarize.Option{summarize.WithRetries(uint(max(a.cfg.Summarizer.MaxRetries, 0)), a.cfg.RetryDelay())}

	switch strings.ToLower(a.cfg.Summarizer.Provider) {
	case "openai":
		keys := os.Getenv("OPENAI_API_KEY")
		if keys == "" {
			log.Println("OPENAI_API_KEY not set, summarization disabled")
			return nil
		}
		models := make([]openaicompat.ModelConfig, 0, len(a.cfg.Summarizer.Models))
		for _, m := range a.cfg.Summarizer.Models {
			models = append(models, openaicompat.ModelConfig{ID: m.ID, MaxToken: m.MaxTokens})
		}
		client := openaicompat.NewClient(os.Getenv("OPENAI_BASE_URL"), keys, a.cfg.Summarizer.Temperature, models)
		return summarize.New(client, opts...)
	default:
		key := a.geminiKey(ctx)
		if key == "" {
			log.Println("Gemini API key not set, summarization disabled")
			return nil
		}
		return gemini.NewSummarizer(key, a.cfg.Summarizer.GeminiURL, opts...)
	}
}
