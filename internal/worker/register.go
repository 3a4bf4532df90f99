// Package worker exposes helpers to register workflows/activities with a
// Temporal worker and to construct their dependencies during startup.
package worker

import (
	"go.temporal.io/sdk/activity"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-rubric/internal/evaluation"
	"github.com/ahrav/go-rubric/internal/workflow"
)

// RegisterAll registers the batch evaluation workflow and its activities
// with the Temporal worker. Call once during worker initialization before
// starting the worker; registration is not thread-safe.
func RegisterAll(w sdkworker.Worker, acts *evaluation.Activities) {
	w.RegisterWorkflow(workflow.BatchEvaluationWorkflow)
	w.RegisterActivityWithOptions(acts.EvaluateDocument, activity.RegisterOptions{
		Name: workflow.EvaluateDocumentActivity,
	})
}
