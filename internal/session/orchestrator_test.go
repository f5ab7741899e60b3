package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdfinder/internal/capture"
	"cdfinder/internal/catalog"
	"cdfinder/internal/identification"
	"cdfinder/internal/services/llm"
)

const validCredential = "sk-or-v1-0123456789"

type fakeLoader struct {
	mu      sync.Mutex
	records []catalog.Record
	err     error
	calls   atomic.Int32
	gate    chan struct{}
}

func (f *fakeLoader) LoadAll(ctx context.Context) ([]catalog.Record, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]catalog.Record(nil), f.records...), nil
}

func (f *fakeLoader) set(records []catalog.Record, err error) {
	f.mu.Lock()
	f.records, f.err = records, err
	f.mu.Unlock()
}

type fakeAI struct {
	label     string
	labelErr  error
	specs     identification.Specs
	specsErr  error
	identify  atomic.Int32
	lookups   atomic.Int32
	lastLabel atomic.Value
	// block, when set, holds IdentifyImage until closed.
	block   chan struct{}
	entered chan struct{}
	// before runs at the start of IdentifyImage.
	before func()
	// waitCtx makes LookupSpecs wait for ctx cancellation.
	waitCtx bool
}

func (f *fakeAI) IdentifyImage(ctx context.Context, _ llm.Image) (string, error) {
	f.identify.Add(1)
	if f.before != nil {
		f.before()
	}
	if f.block != nil {
		if f.entered != nil {
			close(f.entered)
		}
		<-f.block
	}
	return f.label, f.labelErr
}

func (f *fakeAI) LookupSpecs(ctx context.Context, label string) (identification.Specs, error) {
	f.lookups.Add(1)
	f.lastLabel.Store(label)
	if f.waitCtx {
		<-ctx.Done()
		return identification.Specs{}, ctx.Err()
	}
	return f.specs, f.specsErr
}

var photo = llm.Image{MIME: "image/jpeg", Data: []byte{0xff, 0xd8}}

func seed() []catalog.Record {
	return []catalog.Record{
		{Label: "Sony CDP-227ESD", DAC: "2 x PCM56P-J & YM3414", Laser: "KSS-151A"},
		{Label: "Denon DCD-1500", DAC: "PCM54HP", Laser: "KSS-123A"},
		{Label: "Philips CD104", DAC: "TDA1540", Laser: "CDM-1"},
	}
}

func newLoaded(t *testing.T, ai identification.Service, credential string) (*Orchestrator, *fakeLoader) {
	t.Helper()
	loader := &fakeLoader{records: seed()}
	o := New(loader, ai, Options{Catalog: catalog.DefaultOptions(), Credential: credential, AITimeout: time.Second})
	require.NoError(t, o.Refresh(context.Background()))
	return o, loader
}

func TestAIAvailable(t *testing.T) {
	tests := map[string]bool{
		"":                     false,
		"undefined":            false,
		"   undefined   ":      false,
		"0123456789":           false,
		" 0123456789 ":         false,
		"01234567890":          true,
		validCredential:        true,
		"  " + validCredential: true,
	}
	for credential, want := range tests {
		assert.Equal(t, want, AIAvailable(credential), "credential %q", credential)
	}
	assert.False(t, New(nil, nil, Options{Credential: validCredential}).AIAvailable())
}

func TestRefreshLoadsCatalog(t *testing.T) {
	o, loader := newLoaded(t, nil, "")
	assert.EqualValues(t, 1, loader.calls.Load())
	assert.Len(t, o.Results(), 3)
	notice, ok := o.LastNotice()
	require.True(t, ok)
	assert.Equal(t, NoticeCatalogLoaded, notice.Kind)
	assert.False(t, notice.Kind.IsError())
}

func TestFailedRefreshKeepsPreviousCatalog(t *testing.T) {
	o, loader := newLoaded(t, nil, "")
	loader.set(nil, errors.New("connection refused"))

	err := o.Refresh(context.Background())
	require.Error(t, err)
	assert.Len(t, o.Catalog().Authoritative(), 3)
	notice, ok := o.LastNotice()
	require.True(t, ok)
	assert.Equal(t, NoticeConnection, notice.Kind)
	assert.Contains(t, notice.Message, "connection refused")
}

func TestConcurrentRefreshSharesOneLoad(t *testing.T) {
	loader := &fakeLoader{records: seed(), gate: make(chan struct{})}
	o := New(loader, nil, Options{Catalog: catalog.DefaultOptions()})

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- o.Refresh(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(loader.gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, loader.calls.Load())
	assert.Len(t, o.Catalog().Authoritative(), 3)
	assert.Len(t, o.Notices(), 1)
}

func TestRefreshSurvivesFirstCallerCancellation(t *testing.T) {
	loader := &fakeLoader{records: seed(), gate: make(chan struct{})}
	o := New(loader, nil, Options{Catalog: catalog.DefaultOptions()})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- o.Refresh(firstCtx) }()
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- o.Refresh(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-first, context.Canceled)

	close(loader.gate)
	require.NoError(t, <-second)
	assert.EqualValues(t, 1, loader.calls.Load())
	assert.Len(t, o.Catalog().Authoritative(), 3)
}

func TestProcessImageMatchDoesNotEscalate(t *testing.T) {
	ai := &fakeAI{label: "Denon DCD-1500"}
	o, _ := newLoaded(t, ai, validCredential)

	out, err := o.ProcessImage(context.Background(), photo)
	require.NoError(t, err)
	assert.True(t, out.Matched)
	assert.False(t, out.Escalated)
	assert.Nil(t, out.Record)
	assert.Zero(t, ai.lookups.Load())
	assert.Equal(t, "Denon DCD-1500", o.Query())
	require.Len(t, o.Results(), 1)
	assert.Equal(t, "Denon DCD-1500", o.Results()[0].Label)
	assert.Equal(t, StateIdle, o.State())
	assert.False(t, o.Busy())
}

func TestProcessImageEscalatesOnceWhenAbsent(t *testing.T) {
	ai := &fakeAI{label: "Marantz cd-63 mkII", specs: identification.Specs{DAC: "TDA1549T", Laser: "CDM12.1"}}
	o, _ := newLoaded(t, ai, validCredential)

	out, err := o.ProcessImage(context.Background(), photo)
	require.NoError(t, err)
	assert.False(t, out.Matched)
	assert.True(t, out.Escalated)
	assert.EqualValues(t, 1, ai.lookups.Load())
	assert.Equal(t, "Marantz cd-63 mkII", ai.lastLabel.Load())

	require.NotNil(t, out.Record)
	assert.Equal(t, "MARANTZ CD-63 MKII", out.Record.Label)
	assert.Equal(t, catalog.OriginGenerated, out.Record.Origin)
	assert.Equal(t, "MARANTZ CD-63 MKII", o.Query())

	results := o.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "TDA1549T", results[0].DAC)
	assert.Equal(t, "MARANTZ CD-63 MKII", o.Catalog().Generated()[0].Label)
	assert.Len(t, o.Catalog().View(), 4)

	notice, _ := o.LastNotice()
	assert.Equal(t, NoticeSpecsFound, notice.Kind)
}

func TestProcessImageChecksAuthoritativeOnly(t *testing.T) {
	ai := &fakeAI{label: "Rotel RCD-855", specs: identification.Specs{DAC: "TDA1541", Laser: "CDM-1"}}
	o, _ := newLoaded(t, ai, validCredential)

	_, err := o.ProcessImage(context.Background(), photo)
	require.NoError(t, err)
	_, err = o.ProcessImage(context.Background(), photo)
	require.NoError(t, err)
	assert.EqualValues(t, 2, ai.lookups.Load())
}

func TestProcessImageWithoutAIAvailabilitySetsQuery(t *testing.T) {
	ai := &fakeAI{label: "Technics SL-P1200"}
	o, _ := newLoaded(t, ai, "short")

	out, err := o.ProcessImage(context.Background(), photo)
	require.NoError(t, err)
	assert.False(t, out.Matched)
	assert.False(t, out.Escalated)
	assert.Zero(t, ai.lookups.Load())
	assert.Equal(t, "Technics SL-P1200", o.Query())
	assert.Empty(t, o.Results())
	assert.False(t, o.CanSearchWithAI())
}

func TestProcessImageIdentificationMiss(t *testing.T) {
	ai := &fakeAI{labelErr: identification.ErrNotFound}
	o, _ := newLoaded(t, ai, validCredential)
	o.SetQuery("sony")

	_, err := o.ProcessImage(context.Background(), photo)
	require.ErrorIs(t, err, ErrIdentificationMiss)
	assert.ErrorIs(t, err, identification.ErrNotFound)
	assert.Equal(t, "sony", o.Query())
	assert.Zero(t, ai.lookups.Load())
	notice, _ := o.LastNotice()
	assert.Equal(t, NoticeIdentificationMiss, notice.Kind)
	assert.Equal(t, StateIdle, o.State())
	assert.False(t, o.Busy())
}

func TestProcessImageUnreadableLabelIsIdentificationMiss(t *testing.T) {
	for _, label := range []string{"???", " -- "} {
		t.Run(label, func(t *testing.T) {
			ai := &fakeAI{label: label}
			o, _ := newLoaded(t, ai, validCredential)
			o.SetQuery("sony")

			out, err := o.ProcessImage(context.Background(), photo)
			require.ErrorIs(t, err, ErrIdentificationMiss)
			assert.False(t, out.Escalated)
			assert.Zero(t, ai.lookups.Load())
			assert.Empty(t, o.Catalog().Generated())
			assert.Equal(t, "sony", o.Query())
			notice, _ := o.LastNotice()
			assert.Equal(t, NoticeIdentificationMiss, notice.Kind)
			assert.False(t, o.Busy())
		})
	}
}

func TestEscalateRejectsLabelsWithoutAlphanumerics(t *testing.T) {
	ai := &fakeAI{specs: identification.Specs{DAC: "PCM56P", Laser: "KSS-151A"}}
	o, _ := newLoaded(t, ai, validCredential)

	_, err := o.Escalate(context.Background(), "---")
	require.Error(t, err)
	assert.Zero(t, ai.lookups.Load())
	assert.Empty(t, o.Catalog().Generated())

	o.SetQuery("---")
	assert.False(t, o.CanSearchWithAI())
}

func TestProcessImageSpecificationMiss(t *testing.T) {
	ai := &fakeAI{label: "Unknown 9000", specsErr: identification.ErrNotFound}
	o, _ := newLoaded(t, ai, validCredential)

	out, err := o.ProcessImage(context.Background(), photo)
	require.ErrorIs(t, err, ErrSpecificationMiss)
	assert.True(t, out.Escalated)
	assert.Empty(t, o.Catalog().Generated())
	assert.Equal(t, "Unknown 9000", o.Query())
	notice, _ := o.LastNotice()
	assert.Equal(t, NoticeSpecificationMiss, notice.Kind)
	assert.False(t, o.Busy())
}

func TestBusyRejectsOverlappingWork(t *testing.T) {
	ai := &fakeAI{label: "Denon DCD-1500", block: make(chan struct{}), entered: make(chan struct{})}
	o, _ := newLoaded(t, ai, validCredential)

	done := make(chan error, 1)
	go func() {
		_, err := o.ProcessImage(context.Background(), photo)
		done <- err
	}()
	<-ai.entered
	assert.True(t, o.Busy())
	assert.Equal(t, StateIdentifying, o.State())

	_, err := o.ProcessImage(context.Background(), photo)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = o.Escalate(context.Background(), "Sony CDP-101")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = o.Capture(context.Background(), &fakeCamera{})
	assert.ErrorIs(t, err, ErrBusy)
	assert.EqualValues(t, 1, ai.identify.Load())
	assert.Zero(t, ai.lookups.Load())

	close(ai.block)
	require.NoError(t, <-done)
	assert.False(t, o.Busy())
	assert.Equal(t, StateIdle, o.State())
}

func TestSearchWithAIUsesActiveQuery(t *testing.T) {
	ai := &fakeAI{specs: identification.Specs{DAC: "PCM63", Laser: "KSS-190A"}}
	o, _ := newLoaded(t, ai, validCredential)

	assert.False(t, o.CanSearchWithAI())
	o.SetQuery("sony")
	assert.False(t, o.CanSearchWithAI())
	o.SetQuery("Esoteric P-2")
	assert.True(t, o.CanSearchWithAI())

	rec, err := o.SearchWithAI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Esoteric P-2", ai.lastLabel.Load())
	assert.Equal(t, "ESOTERIC P-2", rec.Label)
	assert.Equal(t, "ESOTERIC P-2", o.Query())
	assert.False(t, o.CanSearchWithAI())
	assert.Zero(t, ai.identify.Load())
}

func TestEscalateRequiresAI(t *testing.T) {
	ai := &fakeAI{}
	o, _ := newLoaded(t, ai, "undefined")
	o.SetQuery("Esoteric P-2")
	_, err := o.SearchWithAI(context.Background())
	assert.ErrorIs(t, err, ErrAIUnavailable)
	assert.Zero(t, ai.lookups.Load())
}

func TestEscalateHonoursAITimeout(t *testing.T) {
	ai := &fakeAI{waitCtx: true}
	loader := &fakeLoader{records: seed()}
	o := New(loader, ai, Options{Catalog: catalog.DefaultOptions(), Credential: validCredential, AITimeout: 20 * time.Millisecond})

	_, err := o.Escalate(context.Background(), "Slow 1")
	require.ErrorIs(t, err, ErrSpecificationMiss)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, o.Busy())
}

type fakeStream struct {
	img      llm.Image
	frameErr error
	closed   atomic.Bool
}

func (s *fakeStream) Frame() (llm.Image, error) { return s.img, s.frameErr }

func (s *fakeStream) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeCamera struct {
	stream  *fakeStream
	openErr error
}

func (c *fakeCamera) Open(context.Context) (capture.Stream, error) {
	if c.openErr != nil {
		return nil, c.openErr
	}
	if c.stream == nil {
		return nil, capture.ErrDeviceAccess
	}
	return c.stream, nil
}

func TestCaptureClosesStreamBeforeIdentification(t *testing.T) {
	stream := &fakeStream{img: photo}
	var closedAtIdentify bool
	ai := &fakeAI{label: "Sony CDP-227ESD", before: func() { closedAtIdentify = stream.closed.Load() }}
	o, _ := newLoaded(t, ai, validCredential)

	out, err := o.Capture(context.Background(), &fakeCamera{stream: stream})
	require.NoError(t, err)
	assert.True(t, out.Matched)
	assert.True(t, closedAtIdentify)
	assert.True(t, stream.closed.Load())
}

func TestCaptureFailuresReportDeviceAccess(t *testing.T) {
	ai := &fakeAI{label: "Sony CDP-227ESD"}
	o, _ := newLoaded(t, ai, validCredential)

	_, err := o.Capture(context.Background(), &fakeCamera{openErr: errors.New("permission denied")})
	require.ErrorIs(t, err, capture.ErrDeviceAccess)
	notice, _ := o.LastNotice()
	assert.Equal(t, NoticeDeviceAccess, notice.Kind)

	stream := &fakeStream{frameErr: capture.ErrDeviceAccess}
	_, err = o.Capture(context.Background(), &fakeCamera{stream: stream})
	require.ErrorIs(t, err, capture.ErrDeviceAccess)
	assert.True(t, stream.closed.Load())

	_, err = o.Capture(context.Background(), nil)
	require.ErrorIs(t, err, capture.ErrDeviceAccess)
	assert.Zero(t, ai.identify.Load())
	assert.False(t, o.Busy())
}

func TestNoticesAreCapped(t *testing.T) {
	o := New(&fakeLoader{err: errors.New("down")}, nil, Options{})
	for range maxNotices + 5 {
		_ = o.Refresh(context.Background())
	}
	assert.Len(t, o.Notices(), maxNotices)
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.lock")
	first, err := AcquireLock(path)
	require.NoError(t, err)

	_, err = AcquireLock(path)
	require.ErrorIs(t, err, ErrSessionActive)

	require.NoError(t, first.Release())
	second, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
