package session

import (
	"errors"
	"time"

	"cdfinder/internal/catalog"
)

// State is the orchestrator's position in the identification flow.
type State int

const (
	StateIdle State = iota
	StateIdentifying
	StateChecking
	StateEscalating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIdentifying:
		return "identifying"
	case StateChecking:
		return "checking"
	case StateEscalating:
		return "escalating"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when identification or escalation is already running.
	ErrBusy = errors.New("session busy")
	// ErrAIUnavailable is returned when an AI operation is requested without a usable credential.
	ErrAIUnavailable = errors.New("ai unavailable")
	// ErrIdentificationMiss reports that no label could be read from an image.
	ErrIdentificationMiss = errors.New("could not identify model")
	// ErrSpecificationMiss reports that the spec lookup produced no usable record.
	ErrSpecificationMiss = errors.New("could not find specifications")
)

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	NoticeConnection         NoticeKind = "connection_error"
	NoticeIdentificationMiss NoticeKind = "identification_miss"
	NoticeSpecificationMiss  NoticeKind = "specification_miss"
	NoticeDeviceAccess       NoticeKind = "device_access_error"
	NoticeSpecsFound         NoticeKind = "specs_found"
	NoticeCatalogLoaded      NoticeKind = "catalog_loaded"
)

// IsError reports whether the notice describes a failure.
func (k NoticeKind) IsError() bool {
	switch k {
	case NoticeSpecsFound, NoticeCatalogLoaded:
		return false
	default:
		return true
	}
}

// Notice is a transient message for the user.
type Notice struct {
	Kind    NoticeKind
	Message string
	At      time.Time
}

// Outcome describes what ProcessImage concluded.
type Outcome struct {
	// Label is the identified model text, also the active query.
	Label string
	// Matched is true when the authoritative catalog already covers Label.
	Matched bool
	// Escalated is true when a spec lookup ran.
	Escalated bool
	// Record is the generated record when escalation succeeded.
	Record *catalog.Record
}
