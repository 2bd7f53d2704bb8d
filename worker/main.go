package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/imranansari/vercel-deploy-wf/activities"
	"github.com/imranansari/vercel-deploy-wf/config"
	githubClient "github.com/imranansari/vercel-deploy-wf/github"
	"github.com/imranansari/vercel-deploy-wf/logging"
	"github.com/imranansari/vercel-deploy-wf/vercel"
	"github.com/imranansari/vercel-deploy-wf/workflows"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logging.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	logger := logging.WorkerLogger(cfg.Temporal.TaskQueue)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid worker configuration")
	}

	logger.Info().
		Str("environment", cfg.App.Environment).
		Str("temporal_host", cfg.Temporal.HostPort).
		Str("task_queue", cfg.Temporal.TaskQueue).
		Str("vercel_api_url", cfg.Vercel.APIURL).
		Bool("github_reporting", cfg.GitHub.ReportingEnabled()).
		Msg("Starting Vercel Deployment Waiter Worker")

	// Create Temporal client
	temporalClient, err := createTemporalClient(cfg.Temporal)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Temporal client")
	}
	defer temporalClient.Close()

	// Create Vercel client
	vercelClient, err := vercel.NewClientFromConfig(cfg.Input.VercelAccessToken, cfg.Vercel, logging.VercelLogger())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Vercel client")
	}

	// Create worker
	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     cfg.Temporal.WorkerOptions.MaxConcurrentActivityExecutionSize,
		MaxConcurrentWorkflowTaskExecutionSize: cfg.Temporal.WorkerOptions.MaxConcurrentWorkflowTaskExecutionSize,
		EnableLoggingInReplay:                  cfg.Temporal.WorkerOptions.EnableLoggingInReplay,
	})

	// Register workflows
	w.RegisterWorkflow(workflows.VercelDeploymentWorkflow)

	// Register activities
	vercelActivities := activities.NewVercelActivities(vercelClient)
	w.RegisterActivity(vercelActivities.FindVercelDeployment)
	w.RegisterActivity(vercelActivities.GetLatestVercelBuild)

	if cfg.GitHub.ReportingEnabled() {
		// Installation IDs are resolved per organization on first use
		githubFactory := githubClient.NewClientFactory(cfg.GitHub, cfg.Secrets.GitHubPrivateKey, logging.GitHubLogger())
		githubActivities := activities.NewGitHubActivities(githubClient.NewReporter(githubFactory, logging.GitHubLogger()))
		w.RegisterActivity(githubActivities.ReportGitHubDeployment)
	} else {
		logger.Info().Msg("GitHub App not configured, deployment status reporting is disabled")
	}

	// Run worker
	logger.Info().Msg("Starting Temporal worker")

	// Handle graceful shutdown
	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Run(worker.InterruptCh())
	}()

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal().Err(err).Msg("Worker error")
		}
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received termination signal")
		w.Stop()
	}

	logger.Info().Msg("Worker stopped gracefully")
}

func createTemporalClient(cfg config.TemporalConfig) (client.Client, error) {
	options := client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
	}

	return client.Dial(options)
}
