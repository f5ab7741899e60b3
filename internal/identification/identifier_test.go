package identification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdfinder/internal/config"
	"cdfinder/internal/services/anthropic"
	"cdfinder/internal/services/llm"
	"cdfinder/internal/services/openai"
)

type stubCompleter struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func (s *stubCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

var testImage = llm.Image{MIME: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}}

func TestIdentifyImageCleansReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "plain", reply: "Sony CDP-227ESD", want: "Sony CDP-227ESD"},
		{name: "quoted", reply: `**"Sony CDP-227ESD"**`, want: "Sony CDP-227ESD"},
		{name: "multi line", reply: "\n 'Denon DCD-1500'.\nIt is a Denon.", want: "Denon DCD-1500"},
		{name: "extra spaces", reply: "Marantz   CD-94", want: "Marantz CD-94"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{replies: []string{tt.reply}}
			got, err := NewIdentifier(stub, nil).IdentifyImage(context.Background(), testImage)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, stub.requests, 1)
			req := stub.requests[0]
			assert.Equal(t, IdentifyPrompt, req.Prompt)
			require.NotNil(t, req.Image)
			assert.Equal(t, "image/jpeg", req.Image.MIME)
			assert.False(t, req.WantsJSON())
		})
	}
}

func TestIdentifyImageNotFound(t *testing.T) {
	for _, reply := range []string{"", "   ", "NOT_FOUND", "'NOT_FOUND'", "not_found", "Model: NOT_FOUND"} {
		stub := &stubCompleter{replies: []string{reply}}
		_, err := NewIdentifier(stub, nil).IdentifyImage(context.Background(), testImage)
		assert.ErrorIs(t, err, ErrNotFound, "reply %q", reply)
	}
}

func TestIdentifyImageWrapsProviderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewIdentifier(&stubCompleter{err: boom}, nil).IdentifyImage(context.Background(), testImage)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestIdentifyImageRejectsEmptyImage(t *testing.T) {
	stub := &stubCompleter{}
	_, err := NewIdentifier(stub, nil).IdentifyImage(context.Background(), llm.Image{MIME: "image/png"})
	require.Error(t, err)
	assert.Zero(t, stub.calls())
}

func TestLookupSpecs(t *testing.T) {
	stub := &stubCompleter{replies: []string{"```json\n{\"dac\": \"2 x PCM56P-J & YM3414\", \"laser\": \"KSS-151A\"}\n```"}}
	specs, err := NewIdentifier(stub, nil).LookupSpecs(context.Background(), "  Sony CDP-227ESD ")
	require.NoError(t, err)
	assert.Equal(t, Specs{DAC: "2 x PCM56P-J & YM3414", Laser: "KSS-151A"}, specs)

	req := stub.requests[0]
	assert.Contains(t, req.Prompt, `"Sony CDP-227ESD"`)
	require.NotNil(t, req.Schema)
	assert.ElementsMatch(t, []string{"dac", "laser"}, req.Schema.Required)
	assert.Equal(t, SpecsSystemPrompt, req.System)
}

func TestLookupSpecsIncomplete(t *testing.T) {
	replies := []string{
		`{"dac": "TDA1541A"}`,
		`{"dac": "", "laser": "CDM-1"}`,
		`{"dac": "NOT_FOUND", "laser": "NOT_FOUND"}`,
		`I could not find that player.`,
	}
	for _, reply := range replies {
		stub := &stubCompleter{replies: []string{reply}}
		_, err := NewIdentifier(stub, nil).LookupSpecs(context.Background(), "Mystery 1")
		assert.ErrorIs(t, err, ErrNotFound, "reply %q", reply)
	}
}

func TestLookupSpecsRequiresLabel(t *testing.T) {
	stub := &stubCompleter{}
	_, err := NewIdentifier(stub, nil).LookupSpecs(context.Background(), " ")
	require.Error(t, err)
	assert.Zero(t, stub.calls())
}

func TestCachedIdentifierMemoizesByDigest(t *testing.T) {
	stub := &stubCompleter{replies: []string{"Sony CDP-101", "NOT_FOUND"}}
	svc := NewCachedIdentifier(NewIdentifier(stub, nil), time.Minute, nil)
	cached, ok := svc.(*CachedIdentifier)
	require.True(t, ok)

	for range 3 {
		label, err := svc.IdentifyImage(context.Background(), testImage)
		require.NoError(t, err)
		assert.Equal(t, "Sony CDP-101", label)
	}
	assert.Equal(t, 1, stub.calls())

	other := llm.Image{MIME: "image/png", Data: []byte("different")}
	for range 2 {
		_, err := svc.IdentifyImage(context.Background(), other)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 2, stub.calls())
	assert.Equal(t, 2, cached.Len())
}

func TestCachedIdentifierSkipsTransportErrors(t *testing.T) {
	stub := &stubCompleter{err: errors.New("offline")}
	svc := NewCachedIdentifier(NewIdentifier(stub, nil), time.Minute, nil)
	for range 2 {
		_, err := svc.IdentifyImage(context.Background(), testImage)
		require.Error(t, err)
	}
	assert.Equal(t, 2, stub.calls())
}

func TestCachedIdentifierDisabled(t *testing.T) {
	inner := NewIdentifier(&stubCompleter{}, nil)
	assert.Same(t, inner, NewCachedIdentifier(inner, 0, nil))
}

func TestNewCompleterSelectsProvider(t *testing.T) {
	cfg := config.Default()
	cfg.AI.APIKey = "sk-or-1234567890"

	c, err := NewCompleter(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &llm.Client{}, c)

	cfg.AI.Provider = config.ProviderOpenAI
	c, err = NewCompleter(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &openai.Provider{}, c)

	cfg.AI.Provider = config.ProviderAnthropic
	c, err = NewCompleter(&cfg)
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Provider{}, c)

	cfg.AI.Provider = "gemini"
	_, err = NewCompleter(&cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "gemini"))

	cfg.AI.APIKey = ""
	_, err = NewCompleter(&cfg)
	assert.ErrorIs(t, err, ErrNoCredential)
}
