package catalog

import (
	"fmt"
	"strings"
)

// Origin records where a record came from.
type Origin string

const (
	// OriginAuthoritative marks records loaded from the remote store.
	OriginAuthoritative Origin = "database"
	// OriginGenerated marks records synthesized by an AI lookup this session.
	OriginGenerated Origin = "ai"
)

// Badge returns the short display tag for the origin.
func (o Origin) Badge() string {
	switch o {
	case OriginGenerated:
		return "AI SEARCHED"
	default:
		return "DATABASE"
	}
}

// Record is one CD-player model and its key components.
type Record struct {
	// Label is manufacturer plus model, e.g. "Sony CDP-227ESD". Never empty.
	Label string `json:"model"`
	// DAC describes the digital-to-analog converter chip(s); empty when unknown.
	DAC string `json:"dac,omitempty"`
	// Laser describes the optical pickup assembly; empty when unknown.
	Laser  string `json:"laser,omitempty"`
	Origin Origin `json:"source"`
	// ID is the store identity for authoritative records.
	ID string `json:"id,omitempty"`
	// Seq orders generated records within a session.
	Seq int `json:"-"`
}

// Key identifies a record for display purposes. Labels alone may repeat when
// dedupe is off, so generated records are disambiguated by sequence.
func (r Record) Key() string {
	if r.Origin == OriginGenerated {
		return fmt.Sprintf("%s#ai%d", r.Label, r.Seq)
	}
	if r.ID != "" {
		return r.Label + "#" + r.ID
	}
	return r.Label
}

// DACOrDash returns the DAC text or "-" when absent.
func (r Record) DACOrDash() string { return orDash(r.DAC) }

// LaserOrDash returns the laser text or "-" when absent.
func (r Record) LaserOrDash() string { return orDash(r.Laser) }

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
