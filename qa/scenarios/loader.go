// Package scenarios runs YAML-described rostering scenarios end to end
// through the service: solve, audit, lock and optionally repair. The files
// double as living documentation of expected solver behavior.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fleetroster/rosterd/core/model"
	"github.com/fleetroster/rosterd/core/repair"
)

// week anchors day 1 of every scenario on a fixed Monday so the files stay
// reproducible.
var week = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type TourDef struct {
	ID    string `yaml:"id"`
	Day   int    `yaml:"day"`
	Start string `yaml:"start"` // HH:MM
	End   string `yaml:"end"`
	Depot string `yaml:"depot,omitempty"`
	Skill string `yaml:"skill,omitempty"`
}

func (t TourDef) ToModel() (model.TourInstance, error) {
	start, err := clock(t.Day, t.Start)
	if err != nil {
		return model.TourInstance{}, fmt.Errorf("tour %s: %w", t.ID, err)
	}
	end, err := clock(t.Day, t.End)
	if err != nil {
		return model.TourInstance{}, fmt.Errorf("tour %s: %w", t.ID, err)
	}
	return model.TourInstance{
		ID:    t.ID,
		Day:   t.Day,
		Start: start,
		End:   end,
		Depot: t.Depot,
		Skill: t.Skill,
	}, nil
}

type DriverDef struct {
	ID          string   `yaml:"id"`
	Depot       string   `yaml:"depot,omitempty"`
	Skills      []string `yaml:"skills,omitempty"`
	WeeklyHours float64  `yaml:"weekly_hours,omitempty"`
}

func (d DriverDef) ToModel() model.Driver {
	return model.Driver{
		ID:          d.ID,
		Depot:       d.Depot,
		Skills:      d.Skills,
		WeeklyHours: d.WeeklyHours,
	}
}

type AbsenceDef struct {
	Driver  string `yaml:"driver"`
	FromDay int    `yaml:"from_day,omitempty"`
	ToDay   int    `yaml:"to_day,omitempty"`
}

func (a AbsenceDef) ToRequest() repair.Absence {
	return repair.Absence{DriverID: a.Driver, FromDay: a.FromDay, ToDay: a.ToDay}
}

type Expected struct {
	DriversUsed     int     `yaml:"drivers_used"`
	CoveragePercent float64 `yaml:"coverage_percent"`
	RepairLegal     *bool   `yaml:"repair_legal,omitempty"`
}

type Scenario struct {
	Name           string       `yaml:"name"`
	Description    string       `yaml:"description,omitempty"`
	Seed           int64        `yaml:"seed"`
	WeeklyHoursCap float64      `yaml:"weekly_hours_cap,omitempty"`
	Tours          []TourDef    `yaml:"tours"`
	Drivers        []DriverDef  `yaml:"drivers"`
	Absences       []AbsenceDef `yaml:"absences,omitempty"`
	Expected       Expected     `yaml:"expected"`
}

// Forecast converts the tour definitions into a forecast keyed by the
// scenario name.
func (s *Scenario) Forecast() (model.Forecast, error) {
	f := model.Forecast{Ref: s.Name}
	for _, td := range s.Tours {
		ti, err := td.ToModel()
		if err != nil {
			return model.Forecast{}, err
		}
		f.Tours = append(f.Tours, ti)
	}
	return f, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func clock(day int, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad clock %q: %w", hhmm, err)
	}
	d := week.AddDate(0, 0, day-1)
	return d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}
