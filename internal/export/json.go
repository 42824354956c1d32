package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
)

type ExportData struct {
	ID         string             `json:"id"`
	Source     string             `json:"source"`
	Evaluator  string             `json:"evaluator"`
	Integrator string             `json:"integrator"`
	Policy     string             `json:"policy"`
	Dt         float64            `json:"dt,omitempty"`
	Separation string             `json:"separation"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	Bodies     []BodyTrack        `json:"bodies"`
	Metrics    map[string]float64 `json:"metrics"`
}

type BodyTrack struct {
	Mass       float64      `json:"mass"`
	Color      string       `json:"color"`
	Positions  [][3]float64 `json:"positions"`
	Velocities [][3]float64 `json:"velocities"`
}

// NewExportData combines stored run metadata with its trajectory.
func NewExportData(meta *storage.RunMetadata, states []dynamo.Snapshot) ExportData {
	data := ExportData{
		ID:         meta.ID,
		Source:     meta.Source,
		Evaluator:  meta.Evaluator,
		Integrator: meta.Integrator,
		Policy:     meta.Policy,
		Dt:         meta.Dt,
		Separation: meta.Separation,
		Steps:      meta.Steps,
		Times:      make([]float64, len(states)),
		Bodies:     make([]BodyTrack, meta.Bodies),
		Metrics:    meta.Metrics,
	}

	for i := range data.Bodies {
		b := &data.Bodies[i]
		if i < len(meta.Masses) {
			b.Mass = meta.Masses[i]
		}
		var c [3]float64
		if i < len(meta.Colors) {
			c = meta.Colors[i]
		}
		b.Color = viz.BodyColor(c, i, meta.Bodies).Hex()
		b.Positions = make([][3]float64, 0, len(states))
		b.Velocities = make([][3]float64, 0, len(states))
	}

	for k, s := range states {
		data.Times[k] = s.Time
		for i := range data.Bodies {
			if i >= len(s.Positions) {
				break
			}
			p, v := s.Positions[i], s.Velocities[i]
			data.Bodies[i].Positions = append(data.Bodies[i].Positions, [3]float64{p.X, p.Y, p.Z})
			data.Bodies[i].Velocities = append(data.Bodies[i].Velocities, [3]float64{v.X, v.Y, v.Z})
		}
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
