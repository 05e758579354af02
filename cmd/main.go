package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"brief-agent/handler"
	"brief-agent/internal/config"
	"brief-agent/internal/dialogue"
	"brief-agent/internal/domain"
	"brief-agent/internal/host"
	"brief-agent/internal/integrations/flags"
	"brief-agent/internal/integrations/jobs"
	"brief-agent/internal/integrations/paramstore"
	"brief-agent/internal/repository"
	"brief-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load(os.Getenv("BRIEF_CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	mustSet("param_prefix", cfg.ParamPrefix)
	mustSet("jobs_api_url", cfg.JobsAPIURL)

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	var store usecase.SessionStore
	switch cfg.SessionStore {
	case config.StoreMemory:
		store = repository.NewMemoryStore(cfg.SessionTTL, cfg.MaxSessions)
	default:
		store, err = repository.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), cfg.SessionTable, cfg.SessionTTL)
		if err != nil {
			slog.Error("failed to create session store", "err", err)
			os.Exit(1)
		}
	}

	jobsClient, err := jobs.NewClient(ssmClient, cfg.ParamPrefix, cfg.JobsAPIURL, jobs.WithTimeout(cfg.JobsTimeout))
	if err != nil {
		slog.Error("failed to create jobs client", "err", err)
		os.Exit(1)
	}

	flagClient, err := flags.New(ssmClient, cfg.ParamPrefix, cfg.FlagsTTL)
	if err != nil {
		slog.Error("failed to create feature flag client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	resolver := host.NewResolver(cfg.ExpressHosts)
	engine, err := dialogue.NewEngine(jobsClient, jobsClient, flagClient,
		dialogue.WithHostResolver(resolver),
		dialogue.WithMaxQuestions(cfg.MaxQuestions),
		dialogue.WithOrderLinks(map[domain.HostVariant]string{
			domain.HostStudio:  cfg.StudioAppURL,
			domain.HostExpress: cfg.ExpressAppURL,
		}),
	)
	if err != nil {
		slog.Error("failed to create dialogue engine", "err", err)
		os.Exit(1)
	}

	chatService, err := usecase.NewChatService(store, engine, resolver, cfg.MaxTextLength)
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustSet(key, value string) {
	if value == "" {
		slog.Error("required configuration value is not set", "key", key)
		os.Exit(1)
	}
}
