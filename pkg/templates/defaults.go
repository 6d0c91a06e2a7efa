package templates

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"gopkg.in/yaml.v3"
)

// Defaults returns the built-in templates seeded on first run.
func Defaults() []model.Template {
	return []model.Template{
		{
			ID:       "aggression",
			Name:     "Aggression",
			Category: model.CategoryAggression,
			Active:   true,
			Body: `EMERGENCY ALERT - AGGRESSION
I need help immediately!

Address: {ADDRESS}
GPS: {GPS}
Map: {MAP_LINK}

Time: {TIME}
Sent by SafetyRing
Police: 17
SAMU: 15`,
		},
		{
			ID:       "medical",
			Name:     "Medical emergency",
			Category: model.CategoryMedical,
			Active:   true,
			Body: `EMERGENCY ALERT - MEDICAL
Medical assistance required!

Address: {ADDRESS}
GPS: {GPS}
Map: {MAP_LINK}

Time: {TIME}
Sent by SafetyRing
SAMU: 15
Fire brigade: 18`,
		},
		{
			ID:       "road-accident",
			Name:     "Road accident",
			Category: model.CategoryAccident,
			Active:   true,
			Body: `EMERGENCY ALERT - ROAD ACCIDENT
An accident happened, assistance required!

Address: {ADDRESS}
GPS: {GPS}
Map: {MAP_LINK}

Time: {TIME}
Sent by SafetyRing
Police: 17
SAMU: 15
Fire brigade: 18`,
		},
		{
			ID:       "immediate-danger",
			Name:     "Immediate danger",
			Category: model.CategoryDanger,
			Active:   true,
			Body: `EMERGENCY ALERT - IMMEDIATE DANGER
Dangerous situation, evacuation required!

Address: {ADDRESS}
GPS: {GPS}
Map: {MAP_LINK}

Time: {TIME}
Sent by SafetyRing
Police: 17
Fire brigade: 18`,
		},
	}
}

type seedFile struct {
	Templates []model.Template `yaml:"templates"`
}

// LoadSeedFile reads a YAML list of templates used instead of Defaults on
// first run. Templates without an id get a random one; a template with no
// category is filed under Custom.
func LoadSeedFile(path string) ([]model.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i := range f.Templates {
		if f.Templates[i].ID == "" {
			f.Templates[i].ID = uuid.New().String()
		}
		if f.Templates[i].Category == "" {
			f.Templates[i].Category = model.CategoryCustom
		}
	}

	// Reject duplicate ids up front.
	if _, err := NewCatalog(f.Templates); err != nil {
		return nil, fmt.Errorf("validate seed file: %w", err)
	}
	return f.Templates, nil
}
