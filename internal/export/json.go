package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/coastal/internal/sim"
)

type GridData struct {
	Nx int     `json:"nx"`
	Ny int     `json:"ny"`
	Dx float64 `json:"dx"`
	Dy float64 `json:"dy"`
}

type ExportData struct {
	Name     string                 `json:"name"`
	Physics  string                 `json:"physics"`
	Scheme   string                 `json:"scheme"`
	Dt       float64                `json:"dt"`
	Duration float64                `json:"duration"`
	Steps    int                    `json:"steps"`
	Status   string                 `json:"status"`
	Grid     GridData               `json:"grid"`
	Times    []float64              `json:"times"`
	Fields   map[string][][]float64 `json:"fields"`
	Metrics  map[string]float64     `json:"metrics"`
}

// NewExportData flattens a history. Each field holds one row-major slice
// per record.
func NewExportData(name, physics string, hist *sim.History) *ExportData {
	g := hist.Grid
	data := &ExportData{
		Name:     name,
		Physics:  physics,
		Scheme:   hist.Config.Scheme,
		Dt:       hist.Dt,
		Duration: hist.Config.EndTime,
		Steps:    hist.StepsTaken,
		Status:   hist.Status.String(),
		Grid:     GridData{Nx: g.Nx(), Ny: g.Ny(), Dx: g.Dx(), Dy: g.Dy()},
		Times:    hist.Times,
		Fields:   make(map[string][][]float64),
		Metrics:  hist.Metrics,
	}
	for _, f := range hist.Fields() {
		recs := make([][]float64, len(hist.States))
		for i, s := range hist.States {
			if fld := s.Field(f); fld != nil {
				recs[i] = fld.Data
			}
		}
		data.Fields[f] = recs
	}
	return data
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func ExportJSONStdout(data *ExportData) error {
	return WriteJSON(os.Stdout, data)
}
