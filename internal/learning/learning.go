package learning

import (
	"context"
	"math"
	"time"

	"github.com/jamesaphoenix/tx/internal/embedding"
	"github.com/jamesaphoenix/tx/internal/export"
	"github.com/jamesaphoenix/tx/internal/storage"
	"github.com/jamesaphoenix/tx/internal/types"
)

// Boost constants from spec §4.9's additive relevance formula.
const (
	outcomeBoost      = 0.05
	frequencyBoost    = 0.02
	recencyWindowDays = 30
	defaultRecencyWt  = 0.1
	nearWindow        = 6
	searchFanout      = 50 // per-query candidate pool before fusion+boosts trim to limit
)

// positionBonuses decays quickly so it only breaks ties, never dominates
// the additive formula (spec §4.9: "small: 0.05/0.02/...").
var positionBonuses = []float64{0.05, 0.02, 0.01}

type Service struct {
	store    storage.LearningStore
	embedder embedding.Provider
	now      func() time.Time

	exporter *export.Dispatcher
}

// New builds a learning service. embedder may be nil; the service only
// holds it, and neither storage nor Search calls it (spec §9
// EmbeddingProvider port, optional).
func New(store storage.LearningStore, embedder embedding.Provider) *Service {
	return &Service{store: store, embedder: embedder, now: time.Now}
}

// SetExporter wires the best-effort auto-sync dispatcher (spec §5); nil
// (the default) disables export entirely.
func (s *Service) SetExporter(d *export.Dispatcher) { s.exporter = d }

func (s *Service) dispatchExport(ctx context.Context, l *types.Learning) {
	if s.exporter == nil || l == nil {
		return
	}
	s.exporter.Dispatch(ctx, export.EntityLearning, l)
}

func (s *Service) Create(ctx context.Context, l *types.Learning) (*types.Learning, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}
	if l.SourceType == "" {
		l.SourceType = "manual"
	}
	id, err := s.store.InsertLearning(ctx, l)
	if err != nil {
		return nil, err
	}
	l.ID = id
	s.dispatchExport(ctx, l)
	return l, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*types.Learning, error) {
	return s.store.GetLearning(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*types.Learning, error) {
	return s.store.ListLearnings(ctx)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	l, getErr := s.store.GetLearning(ctx, id)
	if err := s.store.DeleteLearning(ctx, id); err != nil {
		return err
	}
	if getErr == nil {
		s.dispatchExport(ctx, l)
	}
	return nil
}

func (s *Service) UpdateOutcome(ctx context.Context, id int64, score float64) error {
	if err := s.store.UpdateOutcome(ctx, id, score); err != nil {
		return err
	}
	if l, err := s.store.GetLearning(ctx, id); err == nil {
		s.dispatchExport(ctx, l)
	}
	return nil
}

func (s *Service) RecordUsage(ctx context.Context, id int64) error {
	if err := s.store.RecordUsage(ctx, id); err != nil {
		return err
	}
	if l, err := s.store.GetLearning(ctx, id); err == nil {
		s.dispatchExport(ctx, l)
	}
	return nil
}

// Search runs the three-pattern FTS5 sweep, fuses the rankings with RRF,
// then applies the recency/outcome/frequency/position boosts additively
// (spec §4.9). Results are ordered by final relevance desc, truncated to
// limit, and filtered to relevance >= minScore.
func (s *Service) Search(ctx context.Context, query string, limit int, minScore float64) ([]*types.SearchResult, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 || limit == 0 {
		return nil, nil
	}

	recencyWeight, err := s.store.GetConfigFloat(ctx, "learning.recency_weight", defaultRecencyWt)
	if err != nil {
		return nil, err
	}

	var rankings [][]int64
	bm25ByID := map[int64]float64{}

	for _, expr := range []string{phraseQuery(tokens), nearQuery(tokens, nearWindow), orQuery(tokens)} {
		if expr == "" {
			continue
		}
		hits, err := s.store.SearchTokens(ctx, expr, searchFanout)
		if err != nil {
			return nil, err
		}
		ranking := make([]int64, len(hits))
		for i, h := range hits {
			ranking[i] = h.LearningID
			if _, seen := bm25ByID[h.LearningID]; !seen {
				bm25ByID[h.LearningID] = h.BM25
			}
		}
		rankings = append(rankings, ranking)
	}

	fusedIDs, fused := fuseRanks(rankings)
	normalized := normalize(fused)

	now := s.now()
	results := make([]*types.SearchResult, 0, len(fusedIDs))
	for rank, id := range fusedIDs {
		l, err := s.store.GetLearning(ctx, id)
		if err != nil {
			continue // a race with deletion shouldn't fail the whole search
		}
		recency := recencyScore(now, l.CreatedAt)
		outcome := 0.0
		if l.OutcomeScore != nil && *l.OutcomeScore > 0 {
			outcome = *l.OutcomeScore
		}
		relevance := normalized[id] +
			recencyWeight*recency +
			outcomeBoost*outcome +
			frequencyBoost*math.Log(1+float64(l.UsageCount)) +
			positionBonus(rank)

		if relevance < minScore {
			continue
		}
		results = append(results, &types.SearchResult{
			Learning:     *l,
			BM25Score:    bm25ByID[id],
			RecencyScore: recency,
			Relevance:    relevance,
		})
	}

	sortByRelevanceDesc(results)

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

// recencyScore decays linearly to zero at recencyWindowDays and never
// goes negative (spec §8 boundary behaviors: 30d -> 0, 15d -> ~0.5, 1h -> >0.95).
func recencyScore(now, created time.Time) float64 {
	ageDays := now.Sub(created).Hours() / 24
	v := 1 - ageDays/recencyWindowDays
	if v < 0 {
		return 0
	}
	return v
}

func positionBonus(rank int) float64 {
	if rank < len(positionBonuses) {
		return positionBonuses[rank]
	}
	return 0
}

func sortByRelevanceDesc(results []*types.SearchResult) {
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j].Relevance > results[j-1].Relevance {
			results[j], results[j-1] = results[j-1], results[j]
			j--
		}
	}
}
