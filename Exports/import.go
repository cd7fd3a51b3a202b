package Exports

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"FleetDesk/Models"

	"github.com/xuri/excelize/v2"
)

var ErrNoRows = errors.New("the sheet has no data rows")

// truckColumns maps normalized header labels to truck fields.
var truckColumns = map[string]string{
	"id":                    "id",
	"immatriculation":       "immatriculation",
	"marque":                "marque",
	"modele":                "modele",
	"modèle":                "modele",
	"annee":                 "annee",
	"année":                 "annee",
	"capacite":              "capacite",
	"capacité":              "capacite",
	"capacite (t)":          "capacite",
	"kilometrage":           "kilometrage",
	"kilométrage":           "kilometrage",
	"statut":                "statut",
	"dateassurance":         "dateAssurance",
	"date assurance":        "dateAssurance",
	"datevisitetechnique":   "dateVisiteTechnique",
	"date visite technique": "dateVisiteTechnique",
	"notes":                 "notes",
}

// RowError points at a spreadsheet row that could not be read.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// ReadTrucks reads the first sheet of an xlsx file. The first row holds the
// headers; unknown columns are ignored and empty rows skipped.
func ReadTrucks(r io.Reader) ([]Models.Truck, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, ErrNoRows
	}

	columns := make(map[int]string)
	for i, header := range rows[0] {
		if field, ok := truckColumns[strings.ToLower(strings.TrimSpace(header))]; ok {
			columns[i] = field
		}
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("no known column in the header row")
	}

	var trucks []Models.Truck
	var rowErrors []RowError
	for n, row := range rows[1:] {
		values := map[string]string{}
		for i, cell := range row {
			if field, ok := columns[i]; ok {
				values[field] = strings.TrimSpace(cell)
			}
		}
		if isEmpty(values) {
			continue
		}

		truck, err := truckFromRow(values)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: n + 2, Err: err.Error()})
			continue
		}
		trucks = append(trucks, truck)
	}
	return trucks, rowErrors, nil
}

func truckFromRow(v map[string]string) (Models.Truck, error) {
	truck := Models.Truck{
		Base:                Models.Base{ID: v["id"]},
		Immatriculation:     strings.ToUpper(v["immatriculation"]),
		Marque:              v["marque"],
		Modele:              v["modele"],
		Statut:              strings.ToLower(v["statut"]),
		DateAssurance:       v["dateAssurance"],
		DateVisiteTechnique: v["dateVisiteTechnique"],
		Notes:               v["notes"],
	}
	if truck.Immatriculation == "" {
		return truck, errors.New("immatriculation is required")
	}
	if truck.Statut == "" {
		truck.Statut = Models.TruckActive
	}

	var err error
	if s := v["annee"]; s != "" {
		if truck.Annee, err = strconv.Atoi(s); err != nil {
			return truck, fmt.Errorf("invalid annee %q", s)
		}
	}
	if s := v["capacite"]; s != "" {
		if truck.Capacite, err = strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err != nil {
			return truck, fmt.Errorf("invalid capacite %q", s)
		}
	}
	if s := v["kilometrage"]; s != "" {
		if truck.Kilometrage, err = strconv.ParseInt(strings.ReplaceAll(s, " ", ""), 10, 64); err != nil {
			return truck, fmt.Errorf("invalid kilometrage %q", s)
		}
	}
	for _, d := range []*string{&truck.DateAssurance, &truck.DateVisiteTechnique} {
		if *d == "" {
			continue
		}
		normalized, err := normalizeDate(*d)
		if err != nil {
			return truck, err
		}
		*d = normalized
	}
	return truck, nil
}

// normalizeDate accepts YYYY-MM-DD, DD/MM/YYYY and the MM-DD-YY form
// excelize uses for date cells.
func normalizeDate(s string) (string, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "01-02-06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("invalid date %q", s)
}

func isEmpty(values map[string]string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

// MergeTrucks matches imported trucks against the fleet, first by id then by
// immatriculation, so a file exported and re-imported updates in place.
// Repeated rows collapse onto the last one.
func MergeTrucks(existing, imported []Models.Truck) (creates, updates []Models.Truck) {
	byID := make(map[string]Models.Truck, len(existing))
	byPlate := make(map[string]string, len(existing))
	for _, t := range existing {
		byID[t.ID] = t
		byPlate[strings.ToUpper(t.Immatriculation)] = t.ID
	}

	resolved := make([]Models.Truck, 0, len(imported))
	pending := make(map[string]int)
	for _, t := range imported {
		plate := strings.ToUpper(t.Immatriculation)
		if _, ok := byID[t.ID]; !ok {
			t.ID = byPlate[plate]
		}
		if t.ID == "" {
			// Same new plate twice in the file: keep the last row
			if i, seen := pending[plate]; seen {
				resolved[i] = t
				continue
			}
			pending[plate] = len(resolved)
		}
		resolved = append(resolved, t)
	}

	for _, t := range Models.UniqueByID(resolved) {
		if t.ID == "" {
			creates = append(creates, t)
			continue
		}
		current := byID[t.ID]
		t.CreatedAt = current.CreatedAt
		t.ChauffeurID = current.ChauffeurID
		updates = append(updates, t)
	}
	return creates, updates
}
