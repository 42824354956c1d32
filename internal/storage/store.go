package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/universe"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	initialFile    = "initial.csv"
	finalFile      = "final.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Source        string             `json:"source"`
	Timestamp     time.Time          `json:"timestamp"`
	Bodies        int                `json:"bodies"`
	Masses        []float64          `json:"masses"`
	Colors        [][3]float64       `json:"colors"`
	Policy        string             `json:"policy"`
	Dt            float64            `json:"dt,omitempty"`
	SpeedUp       float64            `json:"speedup,omitempty"`
	Threshold     float64            `json:"threshold"`
	G             float64            `json:"g"`
	Separation    string             `json:"separation"`
	Softening     float64            `json:"softening,omitempty"`
	MinSeparation float64            `json:"min_separation,omitempty"`
	Evaluator     string             `json:"evaluator"`
	Integrator    string             `json:"integrator"`
	Steps         int                `json:"steps"`
	Elapsed       float64            `json:"elapsed"`
	EnergyDrift   float64            `json:"energy_drift"`
	MomentumDrift float64            `json:"momentum_drift"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the recorded trajectory
// and the initial and final universes in loader format.
func (s *Store) Save(cfg *config.Config, initial *dynamo.Universe, result *sim.Result) (string, error) {
	now := s.now()
	runID, err := s.newRunID(sourceName(cfg.Source()), now)
	if err != nil {
		return "", err
	}
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Source:        cfg.Source(),
		Timestamp:     now,
		Bodies:        initial.Len(),
		Masses:        initial.Masses,
		Colors:        initial.Colors,
		Policy:        cfg.TimestepPolicy,
		Threshold:     cfg.Threshold,
		G:             cfg.G,
		Separation:    separationName(cfg),
		Softening:     cfg.Softening,
		MinSeparation: cfg.MinSeparation,
		Evaluator:     cfg.Evaluator,
		Integrator:    cfg.Integrator,
		Steps:         result.StepsTaken,
		Elapsed:       result.Elapsed,
		EnergyDrift:   result.EnergyDrift,
		MomentumDrift: result.MomentumDrift,
		Metrics:       result.Metrics,
	}
	if cfg.TimestepPolicy == config.PolicyFixed {
		meta.Dt = cfg.FixedDt
	} else {
		meta.SpeedUp = cfg.SpeedUp
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, trajectoryFile), func(w io.Writer) error {
		return WriteTrajectory(w, result.States)
	}); err != nil {
		return "", err
	}

	if err := universe.Save(filepath.Join(runDir, initialFile), initial); err != nil {
		return "", err
	}
	if len(result.States) > 0 {
		final := initial.Clone()
		snap := result.Final()
		copy(final.Positions, snap.Positions)
		copy(final.Velocities, snap.Velocities)
		if err := universe.Save(filepath.Join(runDir, finalFile), final); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) newRunID(base string, now time.Time) (string, error) {
	runID := fmt.Sprintf("%s_%d", base, now.Unix())
	for k := 2; ; k++ {
		_, err := os.Stat(filepath.Join(s.baseDir, runID))
		if errors.Is(err, fs.ErrNotExist) {
			return runID, nil
		}
		if err != nil {
			return "", err
		}
		runID = fmt.Sprintf("%s_%d_%d", base, now.Unix(), k)
	}
}

func sourceName(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func separationName(cfg *config.Config) string {
	switch {
	case cfg.Softening > 0:
		return fmt.Sprintf("softening(%g)", cfg.Softening)
	case cfg.MinSeparation > 0:
		return fmt.Sprintf("min-separation(%g)", cfg.MinSeparation)
	default:
		return "reject"
	}
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every run with readable metadata, oldest first.
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
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &dynamo.NotFoundError{Path: metaPath, Err: err}
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", metaPath, err)
	}

	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) ([]dynamo.Snapshot, error) {
	csvPath := filepath.Join(s.baseDir, runID, trajectoryFile)
	file, err := os.Open(csvPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &dynamo.NotFoundError{Path: csvPath, Err: err}
		}
		return nil, err
	}
	defer file.Close()

	return ReadTrajectory(file)
}

// LoadUniverse reads the initial or final universe of a run.
func (s *Store) LoadUniverse(runID string, final bool) (*dynamo.Universe, error) {
	name := initialFile
	if final {
		name = finalFile
	}
	return universe.Load(filepath.Join(s.baseDir, runID, name))
}

// WriteTrajectory writes one row per snapshot: step, time, then position and
// velocity components for every body.
func WriteTrajectory(w io.Writer, states []dynamo.Snapshot) error {
	cw := csv.NewWriter(w)

	if len(states) == 0 {
		cw.Flush()
		return cw.Error()
	}

	header := []string{"step", "time"}
	for i := range states[0].Positions {
		for _, f := range []string{"px", "py", "pz", "vx", "vy", "vz"} {
			header = append(header, fmt.Sprintf("%s%d", f, i))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for _, s := range states {
		row = append(row[:0], strconv.Itoa(s.Step), formatFloat(s.Time))
		for i, p := range s.Positions {
			v := s.Velocities[i]
			row = append(row,
				formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z),
				formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadTrajectory(r io.Reader) ([]dynamo.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return []dynamo.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 2 || (len(header)-2)%6 != 0 {
		return nil, &dynamo.FormatError{Line: 1, Field: -1, Err: fmt.Errorf("bad trajectory header with %d columns", len(header))}
	}
	n := (len(header) - 2) / 6

	states := make([]dynamo.Snapshot, 0)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &dynamo.FormatError{Line: pe.Line, Field: -1, Err: pe.Err}
			}
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, &dynamo.FormatError{Line: line, Field: 0, Text: record[0], Err: errors.Unwrap(err)}
		}
		vals := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			vals[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, &dynamo.FormatError{Line: line, Field: j + 1, Text: field, Err: errors.Unwrap(err)}
			}
		}

		snap := dynamo.Snapshot{
			Step:       step,
			Time:       vals[0],
			Positions:  make([]r3.Vec, n),
			Velocities: make([]r3.Vec, n),
		}
		for i := 0; i < n; i++ {
			c := vals[1+6*i:]
			snap.Positions[i] = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
			snap.Velocities[i] = r3.Vec{X: c[3], Y: c[4], Z: c[5]}
		}
		states = append(states, snap)
	}

	return states, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
