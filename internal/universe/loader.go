// Package universe reads and writes initial conditions in the comma-separated
// body record format, one body per line:
//
//	px,py,pz,vx,vy,vz,mass,color_r,color_g,color_b,size
//
// Positions are in meters, velocities in meters/second and mass in kilograms.
// Color and size are display values and are never interpreted by the physics.
package universe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// FieldsPerRecord is the number of numeric fields in a body record.
const FieldsPerRecord = 11

const (
	colPX = iota
	colPY
	colPZ
	colVX
	colVY
	colVZ
	colMass
	colR
	colG
	colB
	colSize
)

// Load parses the universe file at path.
func Load(path string) (*dynamo.Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &dynamo.NotFoundError{Path: path, Err: err}
		}
		return nil, err
	}
	defer f.Close()

	u, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// Parse reads body records from r. Row order defines body index order.
func Parse(r io.Reader) (*dynamo.Universe, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	u := dynamo.NewUniverse(0)

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
		if len(record) != FieldsPerRecord {
			return nil, &dynamo.FormatError{
				Line:  line,
				Field: -1,
				Text:  strings.Join(record, ","),
				Err:   fmt.Errorf("expected %d fields, got %d", FieldsPerRecord, len(record)),
			}
		}

		var vals [FieldsPerRecord]float64
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, &dynamo.FormatError{Line: line, Field: i, Text: field, Err: errors.Unwrap(err)}
			}
			vals[i] = v
		}

		body := u.Len()
		if err := checkRecord(vals); err != "" {
			return nil, &dynamo.InvalidDataError{Line: line, Body: body, Reason: err}
		}

		u.Positions = append(u.Positions, r3.Vec{X: vals[colPX], Y: vals[colPY], Z: vals[colPZ]})
		u.Velocities = append(u.Velocities, r3.Vec{X: vals[colVX], Y: vals[colVY], Z: vals[colVZ]})
		u.Accelerations = append(u.Accelerations, r3.Vec{})
		u.Masses = append(u.Masses, vals[colMass])
		u.Colors = append(u.Colors, [3]float64{vals[colR], vals[colG], vals[colB]})
		u.Sizes = append(u.Sizes, vals[colSize])
	}

	if u.Len() == 0 {
		return nil, &dynamo.InvalidDataError{Body: 0, Reason: "no bodies in universe"}
	}

	return u, nil
}

func checkRecord(vals [FieldsPerRecord]float64) string {
	m := vals[colMass]
	if !(m > 0) || math.IsInf(m, 0) {
		return fmt.Sprintf("mass must be positive, got %g", m)
	}
	for _, v := range vals[colPX : colVZ+1] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "position and velocity must be finite"
		}
	}
	return ""
}

// Write emits u in the record format with full float precision, so that
// Parse(Write(u)) reproduces u exactly.
func Write(w io.Writer, u *dynamo.Universe) error {
	cw := csv.NewWriter(w)
	row := make([]string, FieldsPerRecord)

	for i := 0; i < u.Len(); i++ {
		p, v, c := u.Positions[i], u.Velocities[i], u.Colors[i]
		vals := [FieldsPerRecord]float64{
			p.X, p.Y, p.Z,
			v.X, v.Y, v.Z,
			u.Masses[i],
			c[0], c[1], c[2],
			u.Sizes[i],
		}
		for j, x := range vals {
			row[j] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Save writes u to path, creating or truncating the file.
func Save(path string, u *dynamo.Universe) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, u); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
