// Package storage persists finished runs, one directory per run: the
// metadata, the configuration document, the gauge record and the full
// history as NetCDF.
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

	"github.com/sirupsen/logrus"

	"github.com/san-kum/coastal/internal/config"
	"github.com/san-kum/coastal/internal/export"
	"github.com/san-kum/coastal/internal/sim"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	gaugeFile    = "gauge.csv"
	historyFile  = "history.nc"
)

type Store struct {
	baseDir string
	log     logrus.FieldLogger
}

type Option func(*Store)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

func New(baseDir string, opts ...Option) *Store {
	s := &Store{baseDir: baseDir, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Physics   string             `json:"physics"`
	Scheme    string             `json:"scheme"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Status    string             `json:"status"`
	Nx        int                `json:"nx"`
	Ny        int                `json:"ny"`
	Field     string             `json:"field"`
	Gauge     [2]int             `json:"gauge"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a finished run and returns its ID. doc is stored as given so
// the run can be repeated; cfg supplies the resolved output settings.
func (s *Store) Save(doc *config.Document, cfg *config.Config, seed int64, hist *sim.History) (string, error) {
	if doc == nil || cfg == nil || hist == nil {
		return "", fmt.Errorf("save: document, config and history are required")
	}
	name := cfg.Name
	if name == "" {
		name = cfg.Physics.Kind
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Physics:   cfg.Physics.Kind,
		Scheme:    hist.Config.Scheme,
		Timestamp: now,
		Seed:      seed,
		Dt:        hist.Dt,
		Duration:  cfg.Solver.Duration,
		Steps:     hist.StepsTaken,
		Status:    hist.Status.String(),
		Nx:        cfg.Grid.Nx,
		Ny:        cfg.Grid.Ny,
		Field:     cfg.Output.Field,
		Gauge:     cfg.Output.Gauge,
		Metrics:   hist.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), doc); err != nil {
		return "", err
	}
	if err := writeGauge(filepath.Join(runDir, gaugeFile), hist, cfg.Output.Gauge); err != nil {
		return "", err
	}
	if hist.Len() > 0 {
		attrs := map[string]string{
			"name":    name,
			"physics": meta.Physics,
			"scheme":  meta.Scheme,
			"seed":    strconv.FormatInt(seed, 10),
			"status":  meta.Status,
		}
		if err := export.WriteNetCDF(filepath.Join(runDir, historyFile), hist, attrs); err != nil {
			return "", fmt.Errorf("history: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"run":     runID,
		"records": hist.Len(),
		"status":  meta.Status,
	}).Info("run saved")
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeGauge records every field at the gauge point, one row per record.
func writeGauge(path string, hist *sim.History, gauge [2]int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	fields := hist.Fields()
	if err := w.Write(append([]string{"time"}, fields...)); err != nil {
		return err
	}

	series := make([][]float64, len(fields))
	for k, name := range fields {
		if series[k], err = hist.Gauge(name, gauge[0], gauge[1]); err != nil {
			return err
		}
	}
	for n, t := range hist.Times {
		row := []string{strconv.FormatFloat(t, 'g', -1, 64)}
		for k := range fields {
			row = append(row, strconv.FormatFloat(series[k][n], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first. Directories without
// readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.log.WithField("dir", entry.Name()).WithError(err).Debug("skipping run")
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadDocument reads back the configuration document the run was made
// from.
func (s *Store) LoadDocument(runID string) (*config.Document, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadGauge reads the gauge record: the record times and one series per
// field.
func (s *Store) LoadGauge(runID string) ([]float64, map[string][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, gaugeFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty gauge record", runID)
	}

	header := records[0]
	times := make([]float64, 0, len(records)-1)
	series := make(map[string][]float64, len(header)-1)
	for n, record := range records[1:] {
		for k, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: row %d: %w", gaugeFile, n+1, err)
			}
			if k == 0 {
				times = append(times, v)
			} else {
				series[header[k]] = append(series[header[k]], v)
			}
		}
	}
	return times, series, nil
}

// HistoryPath is the NetCDF file holding the full record of a run.
func (s *Store) HistoryPath(runID string) string {
	return filepath.Join(s.baseDir, runID, historyFile)
}

// LoadHistory opens the full field record of a run.
func (s *Store) LoadHistory(runID string) (*export.Dataset, error) {
	return export.ReadNetCDF(s.HistoryPath(runID))
}
