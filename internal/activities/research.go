package activities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kocoro-lab/Fathom/internal/citations"
	ometrics "github.com/Kocoro-lab/Fathom/internal/metrics"
	"github.com/Kocoro-lab/Fathom/internal/vectordb"
)

// NoInformationFound is staged as a research item's content when the search
// returns nothing usable. It is real content: dependent chapters still see
// that the question was asked and came up empty.
const NoInformationFound = "No relevant information found."

// ExecuteResearchTask runs one research item: web search, indexing of the
// snippets into the vector store under the item's id, and staging of the raw
// material as the item content.
func (a *Activities) ExecuteResearchTask(ctx context.Context, in ResearchTaskInput) (ResearchTaskResult, error) {
	start := time.Now()
	log := []string{fmt.Sprintf("searching: %s", in.Item.Description)}

	results, err := a.search.Search(ctx, in.Item.Description, in.NumResults)
	if err != nil {
		ometrics.TasksExecuted.WithLabelValues("research", "error").Inc()
		return ResearchTaskResult{}, fmt.Errorf("search for %q failed: %w", in.Item.ItemID, err)
	}

	var blocks []string
	var chunks []vectordb.Chunk
	var texts []string
	for _, r := range results {
		if r.Snippet == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Source: %s\nTitle: %s\nSnippet: %s", r.URL, r.Title, r.Snippet))
		chunks = append(chunks, vectordb.Chunk{
			ResearchTaskID: in.Item.ItemID,
			RunID:          in.RunID,
			URL:            r.URL,
			Title:          r.Title,
			Text:           r.Snippet,
		})
		texts = append(texts, r.Snippet)
	}

	if len(blocks) == 0 {
		log = append(log, "search returned no usable results")
		a.logger.Warn("Research task found nothing",
			zap.String("item_id", in.Item.ItemID),
			zap.String("run_id", in.RunID),
		)
		ometrics.TasksExecuted.WithLabelValues("research", "empty").Inc()
		ometrics.TaskDuration.WithLabelValues("research").Observe(time.Since(start).Seconds())
		return ResearchTaskResult{Content: NoInformationFound, Log: log}, nil
	}

	indexed := 0
	vectors, err := a.embed.GenerateBatchEmbeddings(ctx, texts, "")
	if err != nil {
		// Indexing is best effort. The staged content is what downstream
		// summarization consumes; the vector store only powers retrieval
		// inside writing tasks.
		log = append(log, "indexing skipped: "+err.Error())
		a.logger.Warn("Embedding research snippets failed",
			zap.String("item_id", in.Item.ItemID), zap.Error(err))
	} else if err := a.vector.UpsertChunks(ctx, chunks, vectors); err != nil {
		log = append(log, "indexing skipped: "+err.Error())
		a.logger.Warn("Upserting research chunks failed",
			zap.String("item_id", in.Item.ItemID), zap.Error(err))
	} else {
		indexed = len(chunks)
		log = append(log, fmt.Sprintf("indexed %d snippets", indexed))
	}

	ometrics.TasksExecuted.WithLabelValues("research", "ok").Inc()
	ometrics.TaskDuration.WithLabelValues("research").Observe(time.Since(start).Seconds())
	return ResearchTaskResult{
		Content: strings.Join(blocks, citations.ChapterDelimiter),
		Log:     log,
		Indexed: indexed,
	}, nil
}
