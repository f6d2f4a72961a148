// Package catalog reads curated venue records from JSON and YAML files.
package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMapLink is used when a record carries no map link.
const DefaultMapLink = "https://maps.google.com"

// VenueRecord is a single place to eat or drink.
type VenueRecord struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	Mood    string `json:"mood,omitempty" yaml:"mood,omitempty"`
	Notes   string `json:"notes,omitempty" yaml:"notes,omitempty"`
	MapLink string `json:"map_link,omitempty" yaml:"map_link,omitempty"`
}

// HasMood reports whether the record describes its atmosphere.
func (v VenueRecord) HasMood() bool {
	return v.Mood != ""
}

// MapURL returns the record's map link or the generic maps URL.
func (v VenueRecord) MapURL() string {
	if v.MapLink == "" {
		return DefaultMapLink
	}
	return v.MapLink
}

// Normalize trims s and converts it to Unicode NFC so composed and
// decomposed Vietnamese diacritics compare equal.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func (v VenueRecord) normalized() VenueRecord {
	return VenueRecord{
		Name:    Normalize(v.Name),
		Address: Normalize(v.Address),
		Mood:    Normalize(v.Mood),
		Notes:   Normalize(v.Notes),
		MapLink: strings.TrimSpace(v.MapLink),
	}
}
