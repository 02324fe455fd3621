package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lovelink/pkg/bot"
	"lovelink/pkg/cache"
	"lovelink/pkg/catalog"
	"lovelink/pkg/chat"
	"lovelink/pkg/companion"
	"lovelink/pkg/config"
	"lovelink/pkg/llm"
	"lovelink/pkg/localstore"
	"lovelink/pkg/store"
	"lovelink/pkg/surreal"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envPath    string
)

func main() {
	root := &cobra.Command{
		Use:           "lovelink",
		Short:         "Companion relationship engine behind a Discord bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yml", "path to config.yml")
	root.PersistentFlags().StringVar(&envPath, "env", ".env", "path to .env with secrets")

	root.AddCommand(newRunCommand(), newPlacesCommand())

	if err := root.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve companions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	c := catalog.Default()
	if cfg.Catalog.Path != "" {
		loaded, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", cfg.Catalog.Path, err)
		}
		c = loaded
	}
	return c.WithSyntheticCount(cfg.Catalog.SyntheticCount), nil
}

// surrealURL adds the websocket scheme and rpc path when only a host is given
func surrealURL(host string) string {
	if strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") {
		return host
	}
	return "wss://" + host + "/rpc"
}

func run() error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	secrets, err := config.LoadSecrets(envPath)
	if err != nil {
		return err
	}
	if secrets.DiscordToken == "" {
		return fmt.Errorf("missing required environment variable: DISCORD_TOKEN")
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Companion.Timezone, err)
	}
	places, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	log.Printf("Catalog loaded: %d places, timezone %s", places.Len(), loc)

	local, err := localstore.Open(secrets.LocalDBPath)
	if err != nil {
		return err
	}
	defer local.Close()

	deps := companion.Deps{
		Catalog: places,
		Generator: llm.NewClient(llm.Config{
			APIKeys:     secrets.LLMAPIKeys,
			BaseURL:     secrets.LLMBaseURL,
			Model:       secrets.LLMModel,
			Temperature: cfg.ModelSettings.Temperature,
			TopP:        cfg.ModelSettings.TopP,
			MaxTokens:   cfg.ModelSettings.MaxTokens,
		}),
		Local:             local,
		Location:          loc,
		Persona:           cfg.Companion.Persona,
		GenerationTimeout: cfg.GenerationTimeout(),
		HistoryWindow:     cfg.Companion.HistoryWindow,
		SyncInterval:      cfg.SyncInterval(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The remote copy is optional; without it the device store is the only copy
	if secrets.SurrealHost != "" {
		host := surrealURL(secrets.SurrealHost)
		log.Printf("Connecting to SurrealDB at %s (NS: %s, DB: %s)", host, secrets.SurrealNS, secrets.SurrealDB)
		connectCtx, done := context.WithTimeout(ctx, 15*time.Second)
		client, err := surreal.NewClient(connectCtx, host, secrets.SurrealUser, secrets.SurrealPass, secrets.SurrealNS, secrets.SurrealDB)
		done()
		if err != nil {
			return fmt.Errorf("connect to SurrealDB: %w", err)
		}
		defer client.Close()

		remote, err := store.NewSurrealStore(client, "")
		if err != nil {
			return err
		}
		if err := remote.InitSchema(ctx); err != nil {
			log.Printf("Error defining relationship schema: %v", err)
		}
		deps.Remote = remote
	} else {
		log.Println("SURREAL_DB_HOST not set, running with local storage only")
	}

	if secrets.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(secrets.RedisURL, "lovelink")
		if err != nil {
			return err
		}
		defer redisCache.Close()
		historyMax := cfg.Companion.HistoryMax
		deps.History = func(profileID string) chat.History {
			return chat.NewRedisHistory(redisCache, profileID, historyMax)
		}
		log.Println("Conversation history stored in Redis")
	} else {
		log.Println("REDIS_URL not set, conversation history kept in memory")
	}

	manager, err := companion.NewManager(cfg.Manager.Capacity, deps)
	if err != nil {
		return err
	}
	defer manager.Close()

	handler := bot.NewHandler(manager, loc)

	dg, err := discordgo.New("Bot " + secrets.DiscordToken)
	if err != nil {
		return fmt.Errorf("create Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent

	dg.AddHandler(handler.MessageCreate)
	dg.AddHandler(handler.InteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("open Discord connection: %w", err)
	}
	defer dg.Close()

	handler.SetBotID(dg.State.User.ID)
	handler.SetSession(&bot.DiscordSession{Session: dg})

	// Set DISCORD_GUILD_ID during development for instant command updates
	registeredCommands, err := bot.RegisterSlashCommands(dg, secrets.DiscordGuildID)
	if err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	defer func() {
		if err := bot.UnregisterSlashCommands(dg, secrets.DiscordGuildID, registeredCommands); err != nil {
			log.Printf("Error unregistering slash commands: %v", err)
		}
	}()

	go handler.RunPresence(ctx)

	log.Println("lovelink is now running. Press CTRL-C to exit.")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Println("Shutting down...")
	cancel()
	handler.WaitForReady()
	return nil
}
