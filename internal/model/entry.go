package model

// Reference table column names, in the order the data provider publishes them.
const (
	ColSKU              = "SKU ID"
	ColCategory         = "Category/Sub-category"
	ColHTSNumber        = "HTS Number"
	ColDescription      = "Description"
	ColCountryOfOrigin  = "Country of Origin"
	ColUnitCost         = "COGS/Unit Cost"
	ColGeneralRate      = "General Rate of Duty"
	ColSpecialRate      = "Special Rate of Duty"
	ColColumn2Rate      = "Column 2 Rate of Duty"
	ColAdditionalDuties = "Additional Duties"
	ColFTACountries     = "Applicable FTA Countries"
	ColFTARules         = "Applicable FTA Rules"
)

// Columns lists every reference table header in canonical order.
var Columns = []string{
	ColSKU,
	ColCategory,
	ColHTSNumber,
	ColDescription,
	ColCountryOfOrigin,
	ColUnitCost,
	ColGeneralRate,
	ColSpecialRate,
	ColColumn2Rate,
	ColAdditionalDuties,
	ColFTACountries,
	ColFTARules,
}

// Entry is one row of the tariff reference table. Missing values are empty strings.
type Entry struct {
	SKU              string `json:"sku_id"`
	Category         string `json:"category"`
	HTSNumber        string `json:"hts_number"`
	Description      string `json:"description"`
	CountryOfOrigin  string `json:"country_of_origin"`
	UnitCost         string `json:"unit_cost"`
	GeneralRate      string `json:"general_rate"`
	SpecialRate      string `json:"special_rate"`
	Column2Rate      string `json:"column2_rate"`
	AdditionalDuties string `json:"additional_duties,omitempty"`
	FTACountries     string `json:"fta_countries"`
	FTARules         string `json:"fta_rules"`
}

// Usable reports whether the entry carries both an HTS code and a description.
func (e Entry) Usable() bool {
	return e.HTSNumber != "" && e.Description != ""
}

// Record returns the entry's values ordered like Columns.
func (e Entry) Record() []string {
	return []string{
		e.SKU,
		e.Category,
		e.HTSNumber,
		e.Description,
		e.CountryOfOrigin,
		e.UnitCost,
		e.GeneralRate,
		e.SpecialRate,
		e.Column2Rate,
		e.AdditionalDuties,
		e.FTACountries,
		e.FTARules,
	}
}

// EntryFromRecord maps a record onto an Entry using the header for field names.
// Headers that are not reference columns are ignored; a record shorter than the
// header leaves the trailing fields empty.
func EntryFromRecord(header, record []string) Entry {
	var e Entry
	for i, name := range header {
		var v string
		if i < len(record) {
			v = record[i]
		}
		switch name {
		case ColSKU:
			e.SKU = v
		case ColCategory:
			e.Category = v
		case ColHTSNumber:
			e.HTSNumber = v
		case ColDescription:
			e.Description = v
		case ColCountryOfOrigin:
			e.CountryOfOrigin = v
		case ColUnitCost:
			e.UnitCost = v
		case ColGeneralRate:
			e.GeneralRate = v
		case ColSpecialRate:
			e.SpecialRate = v
		case ColColumn2Rate:
			e.Column2Rate = v
		case ColAdditionalDuties:
			e.AdditionalDuties = v
		case ColFTACountries:
			e.FTACountries = v
		case ColFTARules:
			e.FTARules = v
		}
	}
	return e
}
