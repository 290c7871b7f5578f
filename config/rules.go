package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"otadmin/otcalc"
)

// RulesFile is the on-disk shape of the overtime policy. Every field is
// optional; omitted values keep the built-in default.
//
//	break:
//	  minutes: 60
//	  appliesAtMinutes: 360
//	roundingMinutes: 15
//	nightAfter: "21:00"
//	otStart:
//	  weekday:  {shift0630: "15:30", other: "17:30"}
//	  saturday: {shift0630: "11:30", other: "13:30"}
type RulesFile struct {
	Break struct {
		Minutes          *int `yaml:"minutes"`
		AppliesAtMinutes *int `yaml:"appliesAtMinutes"`
	} `yaml:"break"`
	RoundingMinutes *int   `yaml:"roundingMinutes"`
	NightAfter      string `yaml:"nightAfter"`
	OTStart         struct {
		Weekday  otStartPair `yaml:"weekday"`
		Saturday otStartPair `yaml:"saturday"`
	} `yaml:"otStart"`
}

type otStartPair struct {
	Shift0630 string `yaml:"shift0630"`
	Other     string `yaml:"other"`
}

// LoadRules reads the policy file at path. An empty path yields the defaults.
func LoadRules(path string) (otcalc.Policy, error) {
	if path == "" {
		return otcalc.DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return otcalc.Policy{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(raw)
}

func ParseRules(raw []byte) (otcalc.Policy, error) {
	var f RulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return otcalc.Policy{}, fmt.Errorf("parse rules file: %w", err)
	}

	p := otcalc.DefaultPolicy()
	if f.Break.Minutes != nil {
		p.BreakMinutes = *f.Break.Minutes
	}
	if f.Break.AppliesAtMinutes != nil {
		p.BreakAppliesAt = *f.Break.AppliesAtMinutes
	}
	if f.RoundingMinutes != nil {
		p.RoundingStep = *f.RoundingMinutes
	}

	clocks := []struct {
		raw string
		dst *int
	}{
		{f.NightAfter, &p.NightAfter},
		{f.OTStart.Weekday.Shift0630, &p.WeekdayShift0630},
		{f.OTStart.Weekday.Other, &p.WeekdayOther},
		{f.OTStart.Saturday.Shift0630, &p.SaturdayShift0630},
		{f.OTStart.Saturday.Other, &p.SaturdayOther},
	}
	for _, c := range clocks {
		if c.raw == "" {
			continue
		}
		mins, err := otcalc.ParseClock(c.raw)
		if err != nil {
			return otcalc.Policy{}, fmt.Errorf("rules file: %w", err)
		}
		*c.dst = mins
	}

	if err := validatePolicy(p); err != nil {
		return otcalc.Policy{}, err
	}
	return p, nil
}

func validatePolicy(p otcalc.Policy) error {
	switch {
	case p.RoundingStep <= 0:
		return errors.New("rules file: roundingMinutes must be positive")
	case p.BreakMinutes < 0:
		return errors.New("rules file: break.minutes must not be negative")
	case p.BreakAppliesAt < 0:
		return errors.New("rules file: break.appliesAtMinutes must not be negative")
	}
	return nil
}
