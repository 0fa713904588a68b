package entry

import "github.com/ilyasfoo/lockdown/internal/enum"

// Field is one positional row of a section. Domain is nil for fields whose
// value is published unnormalized.
type Field struct {
	Label  string
	Domain *enum.Domain
}

// Section is a block of rows inside an entry slot. Rows is a row range such as
// "14:24"; Column is the letter of the slot 0 column.
type Section struct {
	Rows   string
	Column string
	Fields []Field
}

// Layout places every section of an entry on the territory sheet.
type Layout struct {
	Meta     Section
	Info     Section
	Measures Section
	Land     Section
	Flight   Section
	Sea      Section
}

func labels(d *enum.Domain, names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Label: n, Domain: d}
	}
	return out
}

// DefaultLayout is the sheet layout used by the lockdown tracker. The order of
// the fields is the order of the rows on the sheet.
func DefaultLayout() Layout {
	return Layout{
		Meta: Section{Rows: "2:6", Column: "I", Fields: labels(nil,
			"editor", "reviewed_by", "status", "type", "date_of_entry")},
		Info: Section{Rows: "9:12", Column: "H", Fields: labels(nil,
			"name", "url", "title", "date")},
		Measures: Section{Rows: "14:24", Column: "H", Fields: labels(enum.Measure,
			"max_gathering",             // max gathering number allowed
			"lockdown_status",           // mandate for self-isolation
			"city_movement_restriction", // going on the street allowed
			"attending_religious_sites",
			"going_to_work",
			"military_not_deployed",
			"academia_allowed",
			"going_to_shops",
			"electricity_nominal",
			"water_nominal",
			"internet_nominal",
		)},
		Land: Section{Rows: "32:38", Column: "H", Fields: labels(enum.Travel,
			"local", "nationals_inbound", "nationals_outbound", "foreigners_inbound",
			"foreigners_outbound", "cross_border_workers", "commerce")},
		Flight: Section{Rows: "42:48", Column: "H", Fields: labels(enum.Travel,
			"local", "nationals_inbound", "nationals_outbound", "foreigners_inbound",
			"foreigners_outbound", "stopovers", "commerce")},
		Sea: Section{Rows: "52:58", Column: "H", Fields: labels(enum.Travel,
			"local", "nationals_inbound", "nationals_outbound", "foreigners_inbound",
			"foreigners_outbound", "cross_border_workers", "commerce")},
	}
}
