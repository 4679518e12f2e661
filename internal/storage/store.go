// Package storage persists finished decay runs so operators can review
// and replot past demonstrations.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	HalfLife          int       `json:"halflife"`
	InitialPopulation int       `json:"initial_population"`
	FinalCount        int       `json:"final_count"`
	Ticks             int       `json:"ticks"`
	Completed         bool      `json:"completed"`
	AlphaEvents       int       `json:"alpha_events"`
	BetaEvents        int       `json:"beta_events"`
}

// Sample is one decay tick: elapsed simulation seconds and the remaining
// population after that tick.
type Sample struct {
	Elapsed float64
	Count   int
}

func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	runID := fmt.Sprintf("decay_%d", meta.Timestamp.Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Ticks = len(samples)

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"elapsed", "count"}); err != nil {
		return "", err
	}
	for _, sm := range samples {
		row := []string{
			strconv.FormatFloat(sm.Elapsed, 'f', 1, 64),
			strconv.Itoa(sm.Count),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) Load(runID string) (RunMetadata, error) {
	var meta RunMetadata
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse metadata for %s: %w", runID, err)
	}
	return meta, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		elapsed, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(row[1])
		if err != nil {
			continue
		}
		samples = append(samples, Sample{Elapsed: elapsed, Count: count})
	}
	return samples, nil
}
