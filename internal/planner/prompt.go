package planner

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"nutrision/internal/portion"
	"nutrision/internal/recipe"
)

//go:embed generator_prompt.md
var generatorPrompt string

// WeekDays are the French day names of a plan, Monday first.
var WeekDays = [recipe.DaysPerWeek]string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}

var generatorTmpl = template.Must(template.New("Generator").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(generatorPrompt))

type promptDiet struct {
	Key   recipe.DietMode
	Label string
}

type promptData struct {
	Days     []string
	Diets    []promptDiet
	Stores   []string
	Portions int
}

func buildGeneratorPrompt() (string, error) {
	data := promptData{Days: WeekDays[:], Portions: portion.Base}
	for _, mode := range recipe.DietModes {
		data.Diets = append(data.Diets, promptDiet{Key: mode, Label: mode.Label()})
	}
	for _, store := range recipe.Supermarkets {
		data.Stores = append(data.Stores, string(store))
	}

	var buf bytes.Buffer
	if err := generatorTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
