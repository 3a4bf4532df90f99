// Command rubric-worker runs a Temporal worker that hosts the durable batch
// evaluation workflow and its activities. Batches started through Temporal
// survive worker restarts; use rubric-eval for one-shot in-process runs.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/evaluation"
	"github.com/ahrav/go-rubric/internal/llm"
	"github.com/ahrav/go-rubric/internal/llm/providers"
	"github.com/ahrav/go-rubric/internal/worker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	hostPort := flag.String("temporal", client.DefaultHostPort, "Temporal server host:port")
	namespace := flag.String("namespace", client.DefaultNamespace, "Temporal namespace")
	taskQueue := flag.String("task-queue", "rubric-eval", "task queue to poll")
	rubricPath := flag.String("rubric", "", "path to the rubric JSON file (required)")
	provider := flag.String("provider", providers.ProviderMock, "completion backend: mock, openai, anthropic, or google")
	model := flag.String("model", "mock", "model identifier")
	flag.Parse()

	if err := run(*hostPort, *namespace, *taskQueue, *rubricPath, *provider, *model, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run(hostPort, namespace, taskQueue, rubricPath, provider, model string, logger *slog.Logger) error {
	ctx := context.Background()

	criteria, err := loadRubric(rubricPath)
	if err != nil {
		return err
	}
	evaluator, err := worker.NewEvaluator(ctx, *criteria, llm.DefaultConfig(provider, model), logger)
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	w := sdkworker.New(c, taskQueue, sdkworker.Options{})
	worker.RegisterAll(w, evaluation.NewActivities(evaluator))

	logger.Info("worker starting", "task_queue", taskQueue, "provider", provider, "model", model)
	return w.Run(sdkworker.InterruptCh())
}

func loadRubric(path string) (*domain.Criteria, error) {
	if path == "" {
		return nil, errors.New("-rubric is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return domain.ParseCriteria(data)
}
