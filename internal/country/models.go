package country

// Country is one record returned by the REST Countries v2 name endpoint.
// Only Name, Capital, Population, Languages and Flag are used for display;
// the remaining fields are decoded and carried through untouched.
type Country struct {
	Name           string            `json:"name"`
	TopLevelDomain []string          `json:"topLevelDomain,omitempty"`
	Alpha2Code     string            `json:"alpha2Code,omitempty"`
	Alpha3Code     string            `json:"alpha3Code,omitempty"`
	CallingCodes   []string          `json:"callingCodes,omitempty"`
	Capital        string            `json:"capital"`
	AltSpellings   []string          `json:"altSpellings,omitempty"`
	Subregion      string            `json:"subregion,omitempty"`
	Region         string            `json:"region,omitempty"`
	Population     int64             `json:"population"`
	LatLng         []float64         `json:"latlng,omitempty"`
	Demonym        string            `json:"demonym,omitempty"`
	Area           float64           `json:"area,omitempty"`
	Gini           float64           `json:"gini,omitempty"`
	Timezones      []string          `json:"timezones,omitempty"`
	Borders        []string          `json:"borders,omitempty"`
	NativeName     string            `json:"nativeName,omitempty"`
	NumericCode    string            `json:"numericCode,omitempty"`
	Flags          Flags             `json:"flags"`
	Currencies     []Currency        `json:"currencies,omitempty"`
	Languages      []Language        `json:"languages"`
	Translations   map[string]string `json:"translations,omitempty"`
	Flag           string            `json:"flag"`
	RegionalBlocs  []RegionalBloc    `json:"regionalBlocs,omitempty"`
	CIOC           string            `json:"cioc,omitempty"`
	Independent    bool              `json:"independent"`
}

type Flags struct {
	SVG string `json:"svg,omitempty"`
	PNG string `json:"png,omitempty"`
}

type Currency struct {
	Code   string `json:"code,omitempty"`
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

type Language struct {
	ISO639_1   string `json:"iso639_1,omitempty"`
	ISO639_2   string `json:"iso639_2,omitempty"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName,omitempty"`
}

type RegionalBloc struct {
	Acronym       string   `json:"acronym"`
	Name          string   `json:"name"`
	OtherNames    []string `json:"otherNames,omitempty"`
	OtherAcronyms []string `json:"otherAcronyms,omitempty"`
}

// FlagRef returns the flag used for display: the emoji when the service
// provides one, otherwise the SVG or PNG URL.
func (c Country) FlagRef() string {
	switch {
	case c.Flag != "":
		return c.Flag
	case c.Flags.SVG != "":
		return c.Flags.SVG
	default:
		return c.Flags.PNG
	}
}

// LanguageNames maps the record's languages to their display names.
func (c Country) LanguageNames() []string {
	names := make([]string, 0, len(c.Languages))
	for _, l := range c.Languages {
		names = append(names, l.Name)
	}
	return names
}

// CardView is the payload handed to a renderer for the single-country card.
type CardView struct {
	Name       string   `json:"name"`
	Capital    string   `json:"capital"`
	Population int64    `json:"population"`
	Languages  []string `json:"languages"`
	Flag       string   `json:"flag"`
}

// ListView is the payload handed to a renderer for the name list.
type ListView struct {
	Countries []string `json:"countries"`
	// Term is the search term, used by renderers that highlight matches.
	Term string `json:"-"`
}

func NewCardView(c Country) CardView {
	return CardView{
		Name:       c.Name,
		Capital:    c.Capital,
		Population: c.Population,
		Languages:  c.LanguageNames(),
		Flag:       c.FlagRef(),
	}
}

func NewListView(countries []Country, term string) ListView {
	names := make([]string, 0, len(countries))
	for _, c := range countries {
		names = append(names, c.Name)
	}
	return ListView{Countries: names, Term: term}
}
