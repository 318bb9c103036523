// Command ingest loads a YAML CV corpus, embeds each entry, and writes
// vectors to Qdrant and entry metadata to Neo4j.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gopkg.in/yaml.v3"

	"github.com/FolioAI/folio-mvp/engine/domain"
	"github.com/FolioAI/folio-mvp/engine/records"
	"github.com/FolioAI/folio-mvp/engine/semantic"
	"github.com/FolioAI/folio-mvp/pkg/fn"
	"github.com/FolioAI/folio-mvp/pkg/ollama"
)

// corpusEntry is one skill in the YAML corpus file.
type corpusEntry struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Summary     string  `yaml:"summary"`
	Years       int     `yaml:"years"`
	Proficiency float64 `yaml:"proficiency"`
	Level       string  `yaml:"level"`
	Category    string  `yaml:"category"`
	Recency     string  `yaml:"recency"`
	Employer    string  `yaml:"employer"`
	Action      string  `yaml:"action"`
	Effect      string  `yaml:"effect"`
	Outcome     string  `yaml:"outcome"`
	Project     string  `yaml:"project"`
}

type corpus struct {
	Skills []corpusEntry `yaml:"skills"`
}

func main() {
	var (
		corpusPath = flag.String("corpus", "corpus.yaml", "YAML corpus file")
		ollamaURL  = flag.String("ollama", "http://localhost:11434", "Ollama base URL")
		model      = flag.String("model", "nomic-embed-text", "Ollama embedding model")
		dims       = flag.Int("dims", 768, "embedding dimensions")
		neo4jURL   = flag.String("neo4j", "neo4j://localhost:7687", "Neo4j bolt URL")
		neo4jUser  = flag.String("neo4j-user", "neo4j", "Neo4j username")
		neo4jPass  = flag.String("neo4j-pass", "password", "Neo4j password")
		qdrantAddr = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		collection = flag.String("collection", "folio", "Qdrant collection name")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log, *corpusPath, *ollamaURL, *model, *dims, *neo4jURL, *neo4jUser, *neo4jPass, *qdrantAddr, *collection); err != nil {
		log.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, corpusPath, ollamaURL, model string, dims int, neo4jURL, neo4jUser, neo4jPass, qdrantAddr, collection string) error {
	entries, err := loadCorpus(corpusPath)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	log.Info("corpus loaded", "file", corpusPath, "entries", len(entries))

	driver, err := neo4j.NewDriverWithContext(neo4jURL, neo4j.BasicAuth(neo4jUser, neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j connect: %w", err)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j verify: %w", err)
	}
	recordStore := records.New(driver)

	vs, err := semantic.New(qdrantAddr, collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vs.Close()
	if err := vs.EnsureCollection(ctx, dims); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	log.Info("connected", "collection", collection, "dims", dims)

	embedder := ollama.NewEmbedClient(ollamaURL, model, dims)

	var vectors []semantic.VectorRecord
	ingested, failed := 0, 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rec := e.toRecord()

		vec, err := fn.Retry(ctx, fn.DefaultRetry, func(ctx context.Context) ([]float32, error) {
			return embedder.Embed(ctx, embedText(rec))
		})
		if err != nil {
			log.Error("embed failed, skipping entry", "name", rec.Name, "error", err)
			failed++
			continue
		}

		if err := recordStore.Save(ctx, rec); err != nil {
			log.Error("record save failed, skipping entry", "name", rec.Name, "error", err)
			failed++
			continue
		}

		vectors = append(vectors, semantic.VectorRecord{
			ID:        rec.ID,
			Embedding: vec,
			Payload: map[string]any{
				"name":     rec.Name,
				"employer": rec.Employer,
				"project":  rec.Project,
			},
		})
		ingested++
	}

	if len(vectors) > 0 {
		if err := vs.Upsert(ctx, vectors); err != nil {
			return fmt.Errorf("vector upsert: %w", err)
		}
	}

	// Read back so a silent write failure shows up in the logs.
	names, err := recordStore.ListNames(ctx)
	if err != nil {
		return fmt.Errorf("verify records: %w", err)
	}
	log.Info("ingest complete", "ingested", ingested, "failed", failed, "stored", len(names))
	return nil
}

func loadCorpus(path string) ([]corpusEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if len(c.Skills) == 0 {
		return nil, fmt.Errorf("corpus %s has no skills", path)
	}
	for i, e := range c.Skills {
		if e.Name == "" {
			return nil, fmt.Errorf("corpus entry %d has no name", i)
		}
	}
	return c.Skills, nil
}

func (e corpusEntry) toRecord() domain.SkillRecord {
	// Qdrant point ids must be UUIDs. Human-readable corpus ids hash to
	// a stable UUID so re-ingesting updates points in place.
	id := e.ID
	switch {
	case id == "":
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(e.Name)).String()
	case uuid.Validate(id) != nil:
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
	}
	level := domain.ParseLevel(e.Level)
	return domain.SkillRecord{
		ID:          id,
		Name:        e.Name,
		Summary:     e.Summary,
		Years:       e.Years,
		Proficiency: e.Proficiency,
		Level:       level,
		LevelLabel:  level.String(),
		Category:    e.Category,
		Recency:     e.Recency,
		Employer:    e.Employer,
		Action:      e.Action,
		Effect:      e.Effect,
		Outcome:     e.Outcome,
		Project:     e.Project,
	}
}

// embedText is the text embedded for a record: the skill name and
// summary, plus category as a weak hint. Employer names stay out so the
// vector reflects the skill itself.
func embedText(rec domain.SkillRecord) string {
	parts := []string{rec.Name}
	if rec.Summary != "" {
		parts = append(parts, rec.Summary)
	}
	if rec.Category != "" {
		parts = append(parts, rec.Category)
	}
	return strings.Join(parts, ". ")
}
