package evad

import (
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/problems"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
	"google.golang.org/protobuf/types/known/structpb"
)

// Wire field names shared by the gRPC and HTTP surfaces.
const (
	fieldRunID          = "run_id"
	fieldConfigYAML     = "config_yaml"
	fieldCallbackURL    = "callback_url"
	fieldCallbackSecret = "callback_secret"
	fieldLimit          = "limit"
	fieldRun            = "run"
	fieldRuns           = "runs"
)

func unixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// runFields renders a run as a JSON-compatible map.
func runFields(r Run) map[string]any {
	m := map[string]any{
		"id":                 r.ID,
		"status":             string(r.Status),
		"problem":            r.Problem,
		"created_at_unix_ms": unixMs(r.CreatedAt),
		"started_at_unix_ms": unixMs(r.StartedAt),
		"ended_at_unix_ms":   unixMs(r.EndedAt),
		"generation":         r.Generation,
		"best":               r.Best,
		"best_valid":         r.BestValid,
		"best_score":         r.BestScore,
		"mean_fitness":       r.MeanFitness,
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	if r.Result != nil {
		m["result"] = resultFields(r.Result)
	}
	return m
}

func resultFields(res *problems.Result) map[string]any {
	return map[string]any{
		"algorithm":   res.Algorithm,
		"best":        res.Best,
		"valid":       res.Fitness.Ok(),
		"score":       res.Fitness.Score(),
		"generations": res.Generations,
		"evaluations": res.Evaluations,
		"cache_hits":  res.CacheHits,
		"elapsed_ms":  res.Elapsed.Milliseconds(),
	}
}

func runToStruct(r Run) (*structpb.Struct, error) {
	return structpb.NewStruct(runFields(r))
}

func runFromStruct(s *structpb.Struct) Run {
	f := s.GetFields()
	r := Run{
		ID:          f["id"].GetStringValue(),
		Status:      RunStatus(f["status"].GetStringValue()),
		Problem:     f["problem"].GetStringValue(),
		CreatedAt:   fromUnixMs(int64(f["created_at_unix_ms"].GetNumberValue())),
		StartedAt:   fromUnixMs(int64(f["started_at_unix_ms"].GetNumberValue())),
		EndedAt:     fromUnixMs(int64(f["ended_at_unix_ms"].GetNumberValue())),
		Error:       f["error"].GetStringValue(),
		Generation:  int(f["generation"].GetNumberValue()),
		Best:        f["best"].GetStringValue(),
		BestValid:   f["best_valid"].GetBoolValue(),
		BestScore:   f["best_score"].GetNumberValue(),
		MeanFitness: f["mean_fitness"].GetNumberValue(),
	}
	if rs := f["result"].GetStructValue(); rs != nil {
		rf := rs.GetFields()
		fitness := eva.InvalidFitness()
		if rf["valid"].GetBoolValue() {
			fitness = eva.NewFitness(rf["score"].GetNumberValue())
		}
		r.Result = &problems.Result{
			Problem:     r.Problem,
			Algorithm:   rf["algorithm"].GetStringValue(),
			Best:        rf["best"].GetStringValue(),
			Fitness:     fitness,
			Generations: int(rf["generations"].GetNumberValue()),
			Evaluations: uint64(rf["evaluations"].GetNumberValue()),
			CacheHits:   uint64(rf["cache_hits"].GetNumberValue()),
			Elapsed:     time.Duration(rf["elapsed_ms"].GetNumberValue()) * time.Millisecond,
		}
	}
	return r
}

func runsToStruct(runs []Run) (*structpb.Struct, error) {
	list := make([]any, 0, len(runs))
	for _, r := range runs {
		list = append(list, runFields(r))
	}
	return structpb.NewStruct(map[string]any{fieldRuns: list})
}

func runsFromStruct(s *structpb.Struct) []Run {
	values := s.GetFields()[fieldRuns].GetListValue().GetValues()
	runs := make([]Run, 0, len(values))
	for _, v := range values {
		runs = append(runs, runFromStruct(v.GetStructValue()))
	}
	return runs
}
