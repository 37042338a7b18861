package activities

import (
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Fathom/internal/config"
	"github.com/Kocoro-lab/Fathom/internal/embeddings"
	"github.com/Kocoro-lab/Fathom/internal/llm"
	"github.com/Kocoro-lab/Fathom/internal/search"
	"github.com/Kocoro-lab/Fathom/internal/vectordb"
)

func llmCompletion(agentID, instructions string, vars map[string]string, tier string) llm.CompletionRequest {
	return llm.CompletionRequest{
		AgentID:      agentID,
		Instructions: instructions,
		Variables:    vars,
		ModelTier:    tier,
	}
}

// Activities bundles every activity implementation with its injected
// clients. One instance is registered on the worker; Temporal invokes
// the methods by name.
type Activities struct {
	llm    *llm.Client
	search *search.Client
	vector *vectordb.Client
	embed  *embeddings.Service
	run    config.RunConfig
	logger *zap.Logger
}

func NewActivities(
	llmClient *llm.Client,
	searchClient *search.Client,
	vectorClient *vectordb.Client,
	embedService *embeddings.Service,
	runCfg config.RunConfig,
	logger *zap.Logger,
) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{
		llm:    llmClient,
		search: searchClient,
		vector: vectorClient,
		embed:  embedService,
		run:    runCfg,
		logger: logger,
	}
}
