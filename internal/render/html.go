package render

import (
	"html/template"
	"strings"

	"github.com/pders01/cntry/internal/country"
)

const cardTemplate = `<div class="country-card">
  <h2 class="country-card__name">{{if .FlagIsURL}}<img class="country-card__flag" src="{{.Flag}}" alt="Flag of {{.Name}}" width="40">{{else if .Flag}}<span class="country-card__flag">{{.Flag}}</span>{{end}} {{.Name}}</h2>
  <p class="country-card__field"><span>Capital:</span> {{.Capital}}</p>
  <p class="country-card__field"><span>Population:</span> {{.Population}}</p>
  <p class="country-card__field"><span>Languages:</span></p>
  <ul class="country-card__languages">
  {{- range .Languages}}
    <li>{{.}}</li>
  {{- end}}
  </ul>
</div>
`

const listTemplate = `<ul class="country-list">
{{- range .Countries}}
  <li class="country-list__item">{{.}}</li>
{{- end}}
</ul>
`

var (
	cardTmpl = template.Must(template.New("country-card").Parse(cardTemplate))
	listTmpl = template.Must(template.New("country-list").Parse(listTemplate))
)

// HTMLRenderer produces the same card and list markup as the browser
// widget, with contextual escaping from html/template.
type HTMLRenderer struct{}

type htmlCard struct {
	Name       string
	Capital    string
	Population string
	Languages  []string
	Flag       string
	FlagIsURL  bool
}

func (HTMLRenderer) Card(card country.CardView) (string, error) {
	var b strings.Builder
	err := cardTmpl.Execute(&b, htmlCard{
		Name:       card.Name,
		Capital:    card.Capital,
		Population: FormatPopulation(card.Population),
		Languages:  card.Languages,
		Flag:       card.Flag,
		FlagIsURL:  isURL(card.Flag),
	})
	if err != nil {
		return "", wrapErr("rendering card template", err)
	}
	return b.String(), nil
}

func (HTMLRenderer) List(list country.ListView) (string, error) {
	var b strings.Builder
	if err := listTmpl.Execute(&b, list); err != nil {
		return "", wrapErr("rendering list template", err)
	}
	return b.String(), nil
}
