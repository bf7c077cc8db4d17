package ollama

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/infrastructure/resilience"
)

// Client talks to one ollama instance. Question generation, answer
// synthesis, retrieval embeddings and the termination similarity check all
// share the connection but may use different models.
type Client struct {
	baseURL         string
	genModel        string
	embedModel      string
	similarityModel string
	httpClient      *http.Client
	executor        *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, genModel, embedModel, similarityModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		genModel:        genModel,
		embedModel:      embedModel,
		similarityModel: similarityModel,
		httpClient:      &http.Client{Timeout: timeout},
		executor:        options.ResilienceExecutor,
	}
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateFromPrompt(ctx context.Context, system, user string) (string, error) {
	return g.client.generate(ctx, system, user)
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.client.embed(ctx, e.client.embedModel, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Synthesizer struct {
	client *Client
}

func NewSynthesizer(client *Client) *Synthesizer {
	return &Synthesizer{client: client}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, docs domain.RankedList) (string, error) {
	return s.client.generate(ctx, researcherSystemPrompt, buildResearchPrompt(question, docs))
}

// SimilarityScorer embeds both sentences with the dedicated similarity
// model and compares them by cosine. Used only by the termination check.
type SimilarityScorer struct {
	client *Client
}

func NewSimilarityScorer(client *Client) *SimilarityScorer {
	return &SimilarityScorer{client: client}
}

func (s *SimilarityScorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	vectors, err := s.client.embed(ctx, s.client.similarityModel, []string{a, b})
	if err != nil {
		return 0, err
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(vectors))
	}
	return cosine(vectors[0], vectors[1]), nil
}

func (c *Client) generate(ctx context.Context, system, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"system": system,
		"prompt": prompt,
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	request := map[string]any{
		"model": model,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := c.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
