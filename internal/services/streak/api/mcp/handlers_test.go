package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/louisbranch/longrun/internal/services/streak/domain"
	"github.com/louisbranch/longrun/internal/services/streak/storage"
	"github.com/louisbranch/longrun/streak"
)

// fakeStore implements storage.ExperimentStore in memory for handler tests.
type fakeStore struct {
	created   []domain.Experiment
	createErr error
	recent    []domain.Experiment
	recentErr error
}

func (f *fakeStore) CreateExperiment(_ context.Context, experiment domain.Experiment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, experiment)
	return nil
}

func (f *fakeStore) GetExperiment(_ context.Context, id string) (domain.Experiment, error) {
	for _, experiment := range f.created {
		if experiment.ID == id {
			return experiment, nil
		}
	}
	return domain.Experiment{}, storage.ErrNotFound
}

func (f *fakeStore) ListExperiments(_ context.Context, _ int, _ string) (storage.ExperimentPage, error) {
	return storage.ExperimentPage{Experiments: f.created}, nil
}

func (f *fakeStore) RecentExperiments(_ context.Context, _ int) ([]domain.Experiment, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.recent, nil
}

func fixedSeed(seed int64) func() (int64, error) {
	return func() (int64, error) { return seed, nil }
}

func TestCountHandler(t *testing.T) {
	t.Run("heads formulation", func(t *testing.T) {
		handler := CountHandler()
		_, result, err := handler(context.Background(), nil, CountInput{Length: 4, MaxRun: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Count != "13" {
			t.Errorf("count = %s, want 13", result.Count)
		}
		if result.Total != "16" {
			t.Errorf("total = %s, want 16", result.Total)
		}
		if result.Formulation != HeadsFormulation {
			t.Errorf("formulation = %q, want %q", result.Formulation, HeadsFormulation)
		}
	})

	t.Run("either formulation", func(t *testing.T) {
		handler := CountHandler()
		_, result, err := handler(context.Background(), nil, CountInput{Length: 4, MaxRun: 2, Formulation: "either"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Count != "10" {
			t.Errorf("count = %s, want 10", result.Count)
		}
	})

	t.Run("unknown formulation", func(t *testing.T) {
		handler := CountHandler()
		_, _, err := handler(context.Background(), nil, CountInput{Length: 4, MaxRun: 2, Formulation: "tails"})
		if err == nil {
			t.Fatal("expected error for unknown formulation")
		}
	})

	t.Run("negative length", func(t *testing.T) {
		handler := CountHandler()
		_, _, err := handler(context.Background(), nil, CountInput{Length: -1, MaxRun: 2})
		if !errors.Is(err, streak.ErrInvalidLength) {
			t.Fatalf("error = %v, want ErrInvalidLength", err)
		}
	})
}

func TestProbabilityHandler(t *testing.T) {
	t.Run("fair model", func(t *testing.T) {
		handler := ProbabilityHandler()
		_, result, err := handler(context.Background(), nil, ProbabilityInput{Length: 4, MaxRun: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Probability != 0.8125 {
			t.Errorf("probability = %v, want 0.8125", result.Probability)
		}
		if result.ExceedProbability != 1-0.8125 {
			t.Errorf("exceed probability = %v, want %v", result.ExceedProbability, 1-0.8125)
		}
		if result.Model != FairModel {
			t.Errorf("model = %q, want %q", result.Model, FairModel)
		}
		if result.HeadProbability != 0.5 {
			t.Errorf("head probability = %v, want 0.5", result.HeadProbability)
		}
	})

	t.Run("either model", func(t *testing.T) {
		handler := ProbabilityHandler()
		_, result, err := handler(context.Background(), nil, ProbabilityInput{Length: 4, MaxRun: 2, Model: "either"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Probability != 0.625 {
			t.Errorf("probability = %v, want 0.625", result.Probability)
		}
	})

	t.Run("biased model matches fair at one half", func(t *testing.T) {
		handler := ProbabilityHandler()
		p := 0.5
		_, result, err := handler(context.Background(), nil, ProbabilityInput{Length: 4, MaxRun: 2, Model: "biased", HeadProbability: &p})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(result.Probability-0.8125) > 1e-12 {
			t.Errorf("probability = %v, want 0.8125", result.Probability)
		}
	})

	t.Run("head probability rejected outside biased model", func(t *testing.T) {
		handler := ProbabilityHandler()
		p := 0.7
		_, _, err := handler(context.Background(), nil, ProbabilityInput{Length: 4, MaxRun: 2, Model: "fair", HeadProbability: &p})
		if err == nil {
			t.Fatal("expected error for head_probability with fair model")
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		handler := ProbabilityHandler()
		_, _, err := handler(context.Background(), nil, ProbabilityInput{Length: 4, MaxRun: 2, Model: "weighted"})
		if err == nil {
			t.Fatal("expected error for unknown model")
		}
	})

	t.Run("invalid bias", func(t *testing.T) {
		handler := ProbabilityHandler()
		p := 1.5
		_, _, err := handler(context.Background(), nil, ProbabilityInput{Length: 4, MaxRun: 2, Model: "biased", HeadProbability: &p})
		if !errors.Is(err, streak.ErrInvalidProbability) {
			t.Fatalf("error = %v, want ErrInvalidProbability", err)
		}
	})
}

func TestTossHandler(t *testing.T) {
	t.Run("deterministic with explicit seed", func(t *testing.T) {
		handler := TossHandler(nil, nil)
		seed := int64(7)
		_, first, err := handler(context.Background(), nil, TossInput{Count: 32, Seed: &seed})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, second, err := handler(context.Background(), nil, TossInput{Count: 32, Seed: &seed})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Fatalf("results differ: %+v vs %+v", first, second)
		}
		if len(first.Sequence) != 32 {
			t.Errorf("sequence length = %d, want 32", len(first.Sequence))
		}
		if got := strings.Count(first.Sequence, "H"); got != first.Heads {
			t.Errorf("heads in sequence = %d, want %d", got, first.Heads)
		}
		if first.Heads+first.Tails != 32 {
			t.Errorf("heads+tails = %d, want 32", first.Heads+first.Tails)
		}
		if first.Seed != seed {
			t.Errorf("seed = %d, want %d", first.Seed, seed)
		}
	})

	t.Run("random seed comes from generator", func(t *testing.T) {
		handler := TossHandler(nil, fixedSeed(42))
		_, result, err := handler(context.Background(), nil, TossInput{Count: 8})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Seed != 42 {
			t.Errorf("seed = %d, want 42", result.Seed)
		}
	})

	t.Run("records experiment when store configured", func(t *testing.T) {
		store := &fakeStore{}
		handler := TossHandler(store, fixedSeed(11))
		_, result, err := handler(context.Background(), nil, TossInput{Count: 16, Label: "demo"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ExperimentID == "" {
			t.Fatal("expected experiment id")
		}
		if len(store.created) != 1 {
			t.Fatalf("stored experiments = %d, want 1", len(store.created))
		}
		experiment := store.created[0]
		if experiment.ID != result.ExperimentID {
			t.Errorf("stored id = %q, want %q", experiment.ID, result.ExperimentID)
		}
		if experiment.Label != "demo" {
			t.Errorf("stored label = %q, want %q", experiment.Label, "demo")
		}
		if experiment.Heads != result.Heads {
			t.Errorf("stored heads = %d, want %d", experiment.Heads, result.Heads)
		}
		if experiment.LongestRun != result.LongestRun {
			t.Errorf("stored longest run = %d, want %d", experiment.LongestRun, result.LongestRun)
		}
		if experiment.LongestHeadRun != result.LongestHeadRun {
			t.Errorf("stored longest head run = %d, want %d", experiment.LongestHeadRun, result.LongestHeadRun)
		}
		if experiment.Seed != result.Seed {
			t.Errorf("stored seed = %d, want %d", experiment.Seed, result.Seed)
		}
	})

	t.Run("store error propagates", func(t *testing.T) {
		store := &fakeStore{createErr: errors.New("disk full")}
		handler := TossHandler(store, fixedSeed(11))
		_, _, err := handler(context.Background(), nil, TossInput{Count: 16})
		if err == nil {
			t.Fatal("expected error from store")
		}
	})

	t.Run("rejects non-positive count", func(t *testing.T) {
		handler := TossHandler(nil, nil)
		_, _, err := handler(context.Background(), nil, TossInput{Count: 0})
		if !errors.Is(err, domain.ErrInvalidTossCount) {
			t.Fatalf("error = %v, want ErrInvalidTossCount", err)
		}
	})

	t.Run("longest run matches reported sequence", func(t *testing.T) {
		handler := TossHandler(nil, fixedSeed(3))
		_, result, err := handler(context.Background(), nil, TossInput{Count: 64})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		longestH := 0
		for _, run := range strings.FieldsFunc(result.Sequence, func(r rune) bool { return r == 'T' }) {
			if len(run) > longestH {
				longestH = len(run)
			}
		}
		longestT := 0
		for _, run := range strings.FieldsFunc(result.Sequence, func(r rune) bool { return r == 'H' }) {
			if len(run) > longestT {
				longestT = len(run)
			}
		}

		want := longestH
		wantFace := streak.Head.String()
		if longestT > longestH {
			want = longestT
			wantFace = streak.Tail.String()
		}
		if result.LongestRun != want {
			t.Errorf("longest run = %d, want %d", result.LongestRun, want)
		}
		if result.LongestFace != wantFace {
			t.Errorf("longest face = %q, want %q", result.LongestFace, wantFace)
		}
	})
}

func TestBatchHandler(t *testing.T) {
	t.Run("deterministic with explicit seed", func(t *testing.T) {
		handler := BatchHandler(nil)
		seed := int64(19)
		input := BatchInput{Trials: 40, TossCount: 25, MaxRun: 4, Seed: &seed}
		_, first, err := handler(context.Background(), nil, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, second, err := handler(context.Background(), nil, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("results differ: %+v vs %+v", first, second)
		}
		if first.WithinBoundShare < 0 || first.WithinBoundShare > 1 {
			t.Errorf("within bound share = %v, want within [0, 1]", first.WithinBoundShare)
		}
		counted := 0
		for _, count := range first.RunLengthCounts {
			counted += count
		}
		if counted != 40 {
			t.Errorf("run length tallies sum to %d, want 40", counted)
		}
	})

	t.Run("predicted probability matches exact theory", func(t *testing.T) {
		handler := BatchHandler(fixedSeed(5))
		_, result, err := handler(context.Background(), nil, BatchInput{Trials: 10, TossCount: 12, MaxRun: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want, err := streak.BiasedProbability(12, 3, 0.5)
		if err != nil {
			t.Fatalf("BiasedProbability returned error: %v", err)
		}
		if result.PredictedWithinBound != want {
			t.Errorf("predicted = %v, want %v", result.PredictedWithinBound, want)
		}
	})

	t.Run("rejects non-positive trials", func(t *testing.T) {
		handler := BatchHandler(fixedSeed(5))
		_, _, err := handler(context.Background(), nil, BatchInput{Trials: 0, TossCount: 10, MaxRun: 3})
		if !errors.Is(err, domain.ErrInvalidTrials) {
			t.Fatalf("error = %v, want ErrInvalidTrials", err)
		}
	})
}

func TestRecentExperimentsHandler(t *testing.T) {
	t.Run("missing store", func(t *testing.T) {
		handler := RecentExperimentsHandler(nil)
		_, err := handler(context.Background(), nil)
		if err == nil {
			t.Fatal("expected error for missing store")
		}
	})

	t.Run("lists recent experiments", func(t *testing.T) {
		store := &fakeStore{recent: []domain.Experiment{
			{ID: "e1", Label: "first", TossCount: 10, Heads: 6, LongestRun: 3, LongestFace: streak.Head, LongestHeadRun: 3},
			{ID: "e2", TossCount: 20, Heads: 9, LongestRun: 4, LongestFace: streak.Tail, LongestHeadRun: 2},
		}}
		handler := RecentExperimentsHandler(store)
		result, err := handler(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Contents) != 1 {
			t.Fatalf("contents = %d, want 1", len(result.Contents))
		}
		content := result.Contents[0]
		if content.URI != "experiments://recent" {
			t.Errorf("uri = %q, want experiments://recent", content.URI)
		}
		if content.MIMEType != "application/json" {
			t.Errorf("mime type = %q, want application/json", content.MIMEType)
		}

		var payload RecentExperimentsPayload
		if err := json.Unmarshal([]byte(content.Text), &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if len(payload.Experiments) != 2 {
			t.Fatalf("experiments = %d, want 2", len(payload.Experiments))
		}
		if payload.Experiments[0].ID != "e1" {
			t.Errorf("first id = %q, want e1", payload.Experiments[0].ID)
		}
		if payload.Experiments[0].LongestHeadRun != 3 {
			t.Errorf("first head run = %d, want 3", payload.Experiments[0].LongestHeadRun)
		}
		if payload.Experiments[1].LongestFace != "Tail" {
			t.Errorf("second face = %q, want Tail", payload.Experiments[1].LongestFace)
		}
	})

	t.Run("store error propagates", func(t *testing.T) {
		store := &fakeStore{recentErr: errors.New("locked")}
		handler := RecentExperimentsHandler(store)
		_, err := handler(context.Background(), nil)
		if err == nil {
			t.Fatal("expected error from store")
		}
	})
}

func TestTracedPassthrough(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler := Traced("streak_count", CountHandler())
		_, result, err := handler(context.Background(), nil, CountInput{Length: 4, MaxRun: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Count != "13" {
			t.Errorf("count = %s, want 13", result.Count)
		}
	})

	t.Run("failure", func(t *testing.T) {
		handler := Traced("streak_count", CountHandler())
		_, _, err := handler(context.Background(), nil, CountInput{Length: -1, MaxRun: 2})
		if !errors.Is(err, streak.ErrInvalidLength) {
			t.Fatalf("error = %v, want ErrInvalidLength", err)
		}
	})
}
