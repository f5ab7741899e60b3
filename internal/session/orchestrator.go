package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cdfinder/internal/capture"
	"cdfinder/internal/catalog"
	"cdfinder/internal/identification"
	"cdfinder/internal/logging"
	"cdfinder/internal/services/llm"
	"cdfinder/internal/textutil"
)

const (
	maxNotices          = 50
	minCredentialLength = 10
	refreshKey          = "refresh"
	refreshTimeout      = 2 * time.Minute
)

// Loader loads the full authoritative collection.
type Loader interface {
	LoadAll(ctx context.Context) ([]catalog.Record, error)
}

// Options configures an Orchestrator.
type Options struct {
	Catalog catalog.Options
	// Credential is the raw AI credential; it decides AIAvailable once.
	Credential string
	// AITimeout bounds each identification and spec lookup. Zero disables it.
	AITimeout time.Duration
	Logger    *slog.Logger
}

// Orchestrator drives one lookup session.
type Orchestrator struct {
	id          string
	loader      Loader
	ai          identification.Service
	catalog     *catalog.Catalog
	aiAvailable bool
	aiTimeout   time.Duration
	logger      *slog.Logger

	busy    atomic.Bool
	refresh singleflight.Group

	mu      sync.Mutex
	state   State
	query   string
	notices []Notice
}

// AIAvailable applies the credential rule: trimmed, not "undefined", and
// longer than ten characters.
func AIAvailable(credential string) bool {
	credential = strings.TrimSpace(credential)
	return credential != "" && credential != "undefined" && len(credential) > minCredentialLength
}

// New builds an orchestrator. ai may be nil, in which case AI is unavailable
// regardless of the credential. Identification runs whenever ai is set;
// escalation additionally requires AIAvailable.
func New(loader Loader, ai identification.Service, opts Options) *Orchestrator {
	id := uuid.NewString()
	logger := logging.NewComponentLogger(opts.Logger, "session").With(logging.String(logging.FieldSessionID, id))
	o := &Orchestrator{
		id:          id,
		loader:      loader,
		ai:          ai,
		catalog:     catalog.New(opts.Catalog),
		aiAvailable: ai != nil && AIAvailable(opts.Credential),
		aiTimeout:   opts.AITimeout,
		logger:      logger,
	}
	logger.Debug("session created", logging.Bool("ai_available", o.aiAvailable))
	return o
}

// ID returns the session identifier attached to every log line.
func (o *Orchestrator) ID() string { return o.id }

// AIAvailable reports whether AI operations may run in this session.
func (o *Orchestrator) AIAvailable() bool { return o.aiAvailable }

// Busy reports whether identification or escalation is in progress.
func (o *Orchestrator) Busy() bool { return o.busy.Load() }

// Catalog exposes the session catalog.
func (o *Orchestrator) Catalog() *catalog.Catalog { return o.catalog }

// State returns the current flow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SetQuery replaces the active query.
func (o *Orchestrator) SetQuery(query string) {
	o.mu.Lock()
	o.query = query
	o.mu.Unlock()
}

// Query returns the active query.
func (o *Orchestrator) Query() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.query
}

// Results filters the merged view by the active query.
func (o *Orchestrator) Results() []catalog.Record {
	return o.catalog.Search(o.Query())
}

// CanSearchWithAI reports whether a manual AI search is offered: AI is
// available, the query is not blank, and nothing matches it.
func (o *Orchestrator) CanSearchWithAI() bool {
	if !o.aiAvailable || textutil.Normalize(o.Query()) == "" {
		return false
	}
	return len(o.Results()) == 0
}

// Notices returns the retained notices, oldest first.
func (o *Orchestrator) Notices() []Notice {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Notice(nil), o.notices...)
}

// LastNotice returns the most recent notice, if any.
func (o *Orchestrator) LastNotice() (Notice, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.notices) == 0 {
		return Notice{}, false
	}
	return o.notices[len(o.notices)-1], true
}

// Refresh reloads the authoritative collection. Concurrent calls share a
// single load that outlives any one caller's cancellation; each caller still
// stops waiting when its own ctx is done. On failure the previous collection
// is kept.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	loadCtx := context.WithoutCancel(logging.WithSessionID(ctx, o.id))
	ch := o.refresh.DoChan(refreshKey, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(loadCtx, refreshTimeout)
		defer cancel()
		return nil, o.load(loadCtx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (o *Orchestrator) load(ctx context.Context) error {
	if o.loader == nil {
		return errors.New("no catalog loader configured")
	}
	records, err := o.loader.LoadAll(ctx)
	if err != nil {
		logging.WarnWithContext(o.logger, "catalog refresh failed", "catalog_refresh_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the catalog backend settings and network"),
			logging.String(logging.FieldImpact, "previous catalog kept"))
		o.notify(NoticeConnection, "Could not load the catalog: "+err.Error())
		return err
	}
	o.catalog.ReplaceAuthoritative(records)
	o.notify(NoticeCatalogLoaded, fmt.Sprintf("%d models ready", len(records)))
	return nil
}

// ProcessImage identifies img, checks the authoritative catalog, and
// escalates to a spec lookup when nothing matches and AI is available.
func (o *Orchestrator) ProcessImage(ctx context.Context, img llm.Image) (Outcome, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return Outcome{}, ErrBusy
	}
	defer o.release()
	return o.processImage(logging.WithSessionID(ctx, o.id), img)
}

// Capture opens camera, reads one frame, closes the stream, and then
// processes the frame like ProcessImage.
func (o *Orchestrator) Capture(ctx context.Context, camera capture.Camera) (Outcome, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return Outcome{}, ErrBusy
	}
	defer o.release()
	ctx = logging.WithSessionID(ctx, o.id)

	img, err := o.readFrame(ctx, camera)
	if err != nil {
		logging.WarnWithContext(o.logger, "camera capture failed", "capture_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check camera permissions or upload a photo instead"),
			logging.String(logging.FieldImpact, "no image processed"))
		o.notify(NoticeDeviceAccess, "Could not access the camera.")
		return Outcome{}, err
	}
	return o.processImage(ctx, img)
}

func (o *Orchestrator) readFrame(ctx context.Context, camera capture.Camera) (llm.Image, error) {
	if camera == nil {
		return llm.Image{}, fmt.Errorf("%w: no camera", capture.ErrDeviceAccess)
	}
	stream, err := camera.Open(ctx)
	if err != nil {
		if !errors.Is(err, capture.ErrDeviceAccess) {
			err = fmt.Errorf("%w: %v", capture.ErrDeviceAccess, err)
		}
		return llm.Image{}, err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			o.logger.Debug("camera stream close failed", logging.Error(cerr))
		}
	}()
	return stream.Frame()
}

// Escalate runs a spec lookup for label and records the result.
func (o *Orchestrator) Escalate(ctx context.Context, label string) (catalog.Record, error) {
	if !o.aiAvailable {
		return catalog.Record{}, ErrAIUnavailable
	}
	if textutil.Normalize(label) == "" {
		return catalog.Record{}, errors.New("escalate: label required")
	}
	if !o.busy.CompareAndSwap(false, true) {
		return catalog.Record{}, ErrBusy
	}
	defer o.release()
	return o.escalate(logging.WithSessionID(ctx, o.id), label)
}

// SearchWithAI escalates using the active query.
func (o *Orchestrator) SearchWithAI(ctx context.Context) (catalog.Record, error) {
	if !o.aiAvailable {
		return catalog.Record{}, ErrAIUnavailable
	}
	return o.Escalate(ctx, o.Query())
}

func (o *Orchestrator) processImage(ctx context.Context, img llm.Image) (Outcome, error) {
	if o.ai == nil {
		o.notify(NoticeIdentificationMiss, "AI is not configured; image identification is unavailable.")
		return Outcome{}, ErrAIUnavailable
	}

	o.setState(StateIdentifying)
	label, err := o.identify(ctx, img)
	if err == nil && textutil.Normalize(label) == "" {
		err = fmt.Errorf("unreadable label %q", label)
	}
	if err != nil {
		logging.WarnWithContext(o.logger, "image identification failed", "identify_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "retake the photo with the model label visible"),
			logging.String(logging.FieldImpact, "no search performed"))
		o.notify(NoticeIdentificationMiss, "Could not identify the model from the image.")
		return Outcome{}, fmt.Errorf("%w: %w", ErrIdentificationMiss, err)
	}
	o.SetQuery(label)
	out := Outcome{Label: label}

	o.setState(StateChecking)
	if o.catalog.HasAuthoritative(label) {
		out.Matched = true
		o.logger.Info("identified model found in catalog", logging.String(logging.FieldLabel, label))
		return out, nil
	}

	if !o.aiAvailable {
		o.logger.Info("identified model not in catalog; ai unavailable", logging.String(logging.FieldLabel, label))
		return out, nil
	}
	out.Escalated = true
	rec, err := o.escalate(ctx, label)
	if err != nil {
		return out, err
	}
	out.Record = &rec
	return out, nil
}

func (o *Orchestrator) identify(ctx context.Context, img llm.Image) (string, error) {
	ctx, cancel := o.withAITimeout(ctx)
	defer cancel()
	return o.ai.IdentifyImage(ctx, img)
}

func (o *Orchestrator) escalate(ctx context.Context, label string) (catalog.Record, error) {
	o.setState(StateEscalating)
	label = strings.TrimSpace(label)

	lookupCtx, cancel := o.withAITimeout(ctx)
	specs, err := o.ai.LookupSpecs(lookupCtx, label)
	cancel()
	if err != nil {
		logging.WarnWithContext(o.logger, "spec lookup failed", "specs_lookup_failed",
			logging.String(logging.FieldLabel, label),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the model name or try again later"),
			logging.String(logging.FieldImpact, "no record added"))
		o.notify(NoticeSpecificationMiss, "Could not find specifications for "+label+".")
		return catalog.Record{}, fmt.Errorf("%w: %w", ErrSpecificationMiss, err)
	}

	rec, ok := o.catalog.AddGenerated(catalog.Record{
		Label: cases.Upper(language.Und).String(label),
		DAC:   specs.DAC,
		Laser: specs.Laser,
	})
	if !ok {
		o.notify(NoticeSpecificationMiss, "Could not find specifications for "+label+".")
		return catalog.Record{}, ErrSpecificationMiss
	}
	o.SetQuery(rec.Label)
	o.logger.Info("generated record added",
		logging.String(logging.FieldEventType, "record_generated"),
		logging.String(logging.FieldLabel, rec.Label),
		logging.String("dac", rec.DAC),
		logging.String("laser", rec.Laser))
	o.notify(NoticeSpecsFound, "Found specifications for "+rec.Label+".")
	return rec, nil
}

func (o *Orchestrator) withAITimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.aiTimeout > 0 {
		return context.WithTimeout(ctx, o.aiTimeout)
	}
	return context.WithCancel(ctx)
}

func (o *Orchestrator) release() {
	o.setState(StateIdle)
	o.busy.Store(false)
}

func (o *Orchestrator) setState(state State) {
	o.mu.Lock()
	prev := o.state
	o.state = state
	o.mu.Unlock()
	if prev != state {
		o.logger.Debug("state changed", logging.String("from", prev.String()), logging.String("to", state.String()))
	}
}

func (o *Orchestrator) notify(kind NoticeKind, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notices = append(o.notices, Notice{Kind: kind, Message: message, At: time.Now()})
	if len(o.notices) > maxNotices {
		o.notices = append([]Notice(nil), o.notices[len(o.notices)-maxNotices:]...)
	}
}
