package brochure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

type section struct {
	title  string
	fields []string
}

// sections lays out the brochure in the order the admin panel presents
// the data. Field keys match brochure table columns; absent or empty
// values are skipped.
var sections = []section{
	{"Basic Info", []string{
		"length", "no_of_berths", "stern_type", "engine", "hull_builder",
		"last_service", "fit_out", "blacking", "year", "boat_safety",
		"steel_spec", "recent_survey",
	}},
	{"History", []string{
		"cin_number", "crt_number", "licence_number", "no_of_owners",
		"engine_service_history", "boiler_service_history", "survey",
		"anodes", "documentation_available",
	}},
	{"Engine Specs", []string{
		"engine_hours", "engine_gearbox", "engine_bow_thruster",
		"engine_weed_hatch", "diesel_tank_capacity", "engine_extras",
	}},
	{"Dimensions", []string{
		"draft", "internal_headroom", "saloon", "galley", "bathroom", "bedroom",
	}},
	{"Heating & Hot Water", []string{
		"central_heating", "solid_fuel_stove", "source_of_hot_water",
		"water_tank", "water_tank_capacity", "heating_system_extras",
	}},
	{"Electrical System", []string{
		"alternator", "batteries", "lighting", "inverter_charger",
		"landline_socket", "generator", "electrical_system_extras",
	}},
	{"Gas System", []string{
		"gas_bottles", "appliances", "gas_system_extras",
	}},
	{"Cabin Fitout", []string{
		"insulation", "ballast", "ceiling", "cabin_sides", "hull_sides",
		"flooring", "side_doors", "windows", "cabin_fit_out_extras",
	}},
	{"Galley", []string{
		"cooker", "fridge_freezer", "microwave", "washing_machine",
		"galley_extras",
	}},
	{"Bathroom", []string{
		"toilet", "waste_tank_capacity", "bath_shower", "vanity_basin",
		"bathroom_extras",
	}},
	{"Bedroom", []string{
		"bed", "dinette", "bedroom_extras",
	}},
	{"Other", []string{
		"tv", "covers", "navigation_equipment", "other_extras",
	}},
}

const disclaimer = `For further information, arrange a viewing or make an offer, please call Noel on 07960 768724

PLEASE NOTE: The Boat Brokers are acting as Brokers only. Whilst every care has been taken in their preparation, the correctness of these particulars is not guaranteed. They do not form part of any current or future contract. Prospective purchasers are advised to have an independent survey carried out by a qualified marine surveyor prior to completion of purchase.

The Boat Brokers is a trading name of Creary Holdings Ltd. Company no: 14876430
`

func fieldLabel(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func fieldValue(v any) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprint(v)
	switch s {
	case "None", "null":
		return ""
	}
	return s
}

// WritePDF renders the brochure record into dir and returns the file
// path.
func WritePDF(rec *Record, name, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	title := name
	if amount := fieldValue(rec.Fields["amount"]); amount != "" {
		title = fmt.Sprintf("%s £%s", name, amount)
	}
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")

	for _, sec := range sections {
		wrote := false
		for _, key := range sec.fields {
			value := fieldValue(rec.Fields[key])
			if value == "" {
				continue
			}
			if !wrote {
				pdf.Ln(5)
				pdf.SetFont("Arial", "B", 14)
				pdf.CellFormat(0, 10, sec.title, "", 1, "", false, 0, "")
				pdf.SetFont("Arial", "", 12)
				wrote = true
			}
			pdf.CellFormat(80, 8, tr(fieldLabel(key)+":"), "", 0, "", false, 0, "")
			pdf.CellFormat(0, 8, tr(value), "", 1, "", false, 0, "")
		}
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 8, tr(disclaimer), "", "", false)

	path := filepath.Join(dir, fmt.Sprintf("%s_brochure_%s.pdf", name, uuid.NewString()[:8]))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}
