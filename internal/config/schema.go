package config

import (
	"fmt"
	"strings"
)

// Schema maps the target site's DOM structure to the fields aisharvest
// extracts. Every selector and form-field name the crawler and parser rely
// on lives here so that a markup change on the site is a configuration edit
// rather than a code change.
//
// The element IDs are the server-generated ClientIDs of the ASP.NET
// controls; the form-field names are their UniqueIDs ($-separated). Both
// are stable for a given page layout but differ from each other, which is
// why the schema carries both spellings.
type Schema struct {
	// ResultsTableID is the ID of the search results grid.
	ResultsTableID string `yaml:"resultsTableID,omitempty"`

	// NextButtonSubstring selects the pagination control: the results
	// page's next button is the input whose name contains this string.
	NextButtonSubstring string `yaml:"nextButtonSubstring,omitempty"`

	// DetailLinkSubstring selects detail links inside the results grid:
	// anchors whose id contains this string post back to the details page.
	DetailLinkSubstring string `yaml:"detailLinkSubstring,omitempty"`

	// SummaryTableID is the ID of the details-page header table holding
	// name, identifier, and institution.
	SummaryTableID string `yaml:"summaryTableID,omitempty"`

	// DemographicsTableID is the ID of the details-page table holding
	// labeled key/value rows.
	DemographicsTableID string `yaml:"demographicsTableID,omitempty"`

	// IncarcerationTableID is the ID shared by every incarceration
	// summary table on the details page. The site re-uses one ID for all
	// of them, so position in document order identifies an individual
	// table.
	IncarcerationTableID string `yaml:"incarcerationTableID,omitempty"`

	// SentenceTablePattern is the fmt pattern producing the ID of the
	// nested sentence table belonging to the i-th incarceration summary.
	SentenceTablePattern string `yaml:"sentenceTablePattern,omitempty"`

	// TextSections are the labels of free-text sections to extract
	// ("Aliases" and the like). The output column for a label is the
	// label with ", " replaced by "_".
	TextSections []string `yaml:"textSections,omitempty"`

	// LastNameField is the form field carrying the last-name search term.
	LastNameField string `yaml:"lastNameField,omitempty"`

	// AISField is the form field carrying the identifier search term.
	AISField string `yaml:"aisField,omitempty"`

	// SearchButtonField is the form field of the search submit button.
	SearchButtonField string `yaml:"searchButtonField,omitempty"`

	// SearchButtonValue is the value the browser would submit for the
	// search button.
	SearchButtonValue string `yaml:"searchButtonValue,omitempty"`

	// SummaryRows maps summary-table row positions to output columns.
	// The identifier row doubles as a fallback target: when its span is
	// missing, the requested identifier is used instead.
	SummaryRows map[int]string `yaml:"summaryRows,omitempty"`
}

// DefaultSchema returns the schema matching the target site's current
// layout.
func DefaultSchema() Schema {
	return Schema{
		ResultsTableID:       "MainContent_gvInmateResults",
		NextButtonSubstring:  "btnNext",
		DetailLinkSubstring:  "lnkInmateName",
		SummaryTableID:       "MainContent_DetailsView2",
		DemographicsTableID:  "MainContent_DetailsView1",
		IncarcerationTableID: "MainContent_gvSentence",
		SentenceTablePattern: "MainContent_gvSentence_GridView1_%d",
		TextSections:         []string{"Aliases", "Scars, Marks and Tattoos"},
		LastNameField:        "ctl00$MainContent$txtLName",
		AISField:             "ctl00$MainContent$txtAIS",
		SearchButtonField:    "ctl00$MainContent$btnSearch",
		SearchButtonValue:    "Search",
		SummaryRows: map[int]string{
			0: "Inmate Name",
			1: "AIS #",
			3: "Institution",
		},
	}
}

// ResultsTableSelector returns the goquery selector for the results grid.
func (s Schema) ResultsTableSelector() string {
	return "table#" + s.ResultsTableID
}

// NextButtonSelector returns the goquery selector for the pagination control.
func (s Schema) NextButtonSelector() string {
	return fmt.Sprintf("input[name*='%s']", s.NextButtonSubstring)
}

// DetailLinkSelector returns the goquery selector for detail links inside
// the results grid.
func (s Schema) DetailLinkSelector() string {
	return fmt.Sprintf("#%s a[id*='%s']", s.ResultsTableID, s.DetailLinkSubstring)
}

// SummaryTableSelector returns the goquery selector for the summary table.
func (s Schema) SummaryTableSelector() string {
	return "table#" + s.SummaryTableID
}

// DemographicsTableSelector returns the goquery selector for the
// demographics table.
func (s Schema) DemographicsTableSelector() string {
	return "table#" + s.DemographicsTableID
}

// IncarcerationTableSelector returns the goquery selector matching every
// incarceration summary table. The site assigns the same ID to all of
// them, so the selector intentionally matches multiple elements.
func (s Schema) IncarcerationTableSelector() string {
	return "table#" + s.IncarcerationTableID
}

// SentenceTableSelector returns the goquery selector for the nested
// sentence table belonging to the i-th incarceration summary.
func (s Schema) SentenceTableSelector(i int) string {
	return "table#" + fmt.Sprintf(s.SentenceTablePattern, i)
}

// SectionColumn returns the output column name for a free-text section
// label.
func SectionColumn(label string) string {
	return strings.ReplaceAll(label, ", ", "_")
}

// Validate checks that every required schema entry is present.
// The returned error wraps ErrIncompleteSchema and names the missing entry.
func (s Schema) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"resultsTableID", s.ResultsTableID},
		{"nextButtonSubstring", s.NextButtonSubstring},
		{"detailLinkSubstring", s.DetailLinkSubstring},
		{"summaryTableID", s.SummaryTableID},
		{"demographicsTableID", s.DemographicsTableID},
		{"incarcerationTableID", s.IncarcerationTableID},
		{"sentenceTablePattern", s.SentenceTablePattern},
		{"lastNameField", s.LastNameField},
		{"aisField", s.AISField},
		{"searchButtonField", s.SearchButtonField},
		{"searchButtonValue", s.SearchButtonValue},
	}
	for _, entry := range required {
		if entry.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrIncompleteSchema, entry.name)
		}
	}
	if len(s.SummaryRows) == 0 {
		return fmt.Errorf("%w: summaryRows is empty", ErrIncompleteSchema)
	}
	return nil
}

// merge overlays non-zero entries of other onto s and returns the result.
// Used when the YAML file overrides individual schema entries.
func (s Schema) merge(other Schema) Schema {
	result := s

	if other.ResultsTableID != "" {
		result.ResultsTableID = other.ResultsTableID
	}
	if other.NextButtonSubstring != "" {
		result.NextButtonSubstring = other.NextButtonSubstring
	}
	if other.DetailLinkSubstring != "" {
		result.DetailLinkSubstring = other.DetailLinkSubstring
	}
	if other.SummaryTableID != "" {
		result.SummaryTableID = other.SummaryTableID
	}
	if other.DemographicsTableID != "" {
		result.DemographicsTableID = other.DemographicsTableID
	}
	if other.IncarcerationTableID != "" {
		result.IncarcerationTableID = other.IncarcerationTableID
	}
	if other.SentenceTablePattern != "" {
		result.SentenceTablePattern = other.SentenceTablePattern
	}
	if len(other.TextSections) > 0 {
		result.TextSections = other.TextSections
	}
	if other.LastNameField != "" {
		result.LastNameField = other.LastNameField
	}
	if other.AISField != "" {
		result.AISField = other.AISField
	}
	if other.SearchButtonField != "" {
		result.SearchButtonField = other.SearchButtonField
	}
	if other.SearchButtonValue != "" {
		result.SearchButtonValue = other.SearchButtonValue
	}
	if len(other.SummaryRows) > 0 {
		result.SummaryRows = other.SummaryRows
	}

	return result
}
