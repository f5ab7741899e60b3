package identification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cdfinder/internal/logging"
	"cdfinder/internal/services/llm"
	"cdfinder/internal/textutil"
)

const (
	identifyMaxTokens = 64
	specsMaxTokens    = 256
)

// ErrNotFound reports that the model could not produce a usable answer.
var ErrNotFound = errors.New("identification: not found")

// Specs is the hardware detail returned by a spec lookup.
type Specs struct {
	DAC   string `json:"dac"`
	Laser string `json:"laser"`
}

// Service is the surface the session depends on.
type Service interface {
	IdentifyImage(ctx context.Context, img llm.Image) (string, error)
	LookupSpecs(ctx context.Context, label string) (Specs, error)
}

// Identifier runs identification and spec prompts against a Completer.
type Identifier struct {
	completer llm.Completer
	logger    *slog.Logger
}

var _ Service = (*Identifier)(nil)

// NewIdentifier wraps completer. A nil logger discards output.
func NewIdentifier(completer llm.Completer, logger *slog.Logger) *Identifier {
	return &Identifier{
		completer: completer,
		logger:    logging.NewComponentLogger(logger, "identifier"),
	}
}

var specsSchema = &llm.Schema{
	Name:       "cd_player_specs",
	Properties: map[string]string{"dac": "string", "laser": "string"},
	Required:   []string{"dac", "laser"},
}

// IdentifyImage returns the model label visible in img. ErrNotFound is
// returned when the reply is empty or the model answers NOT_FOUND.
func (i *Identifier) IdentifyImage(ctx context.Context, img llm.Image) (string, error) {
	if i == nil || i.completer == nil {
		return "", errors.New("identify image: completer unavailable")
	}
	if len(img.Data) == 0 {
		return "", errors.New("identify image: empty image")
	}
	reply, err := i.completer.Complete(ctx, llm.Request{
		Prompt:    IdentifyPrompt,
		Image:     &img,
		MaxTokens: identifyMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("identify image: %w", err)
	}
	label := parseLabel(reply)
	if label == "" {
		i.logger.Info("image not identified",
			logging.String(logging.FieldEventType, "identify_miss"),
			logging.Int("reply_length", len(reply)))
		return "", ErrNotFound
	}
	i.logger.Info("image identified",
		logging.String(logging.FieldEventType, "identify_hit"),
		logging.String(logging.FieldLabel, label))
	return label, nil
}

// LookupSpecs asks for the DAC and laser of label. Both fields must be
// present; anything less is ErrNotFound.
func (i *Identifier) LookupSpecs(ctx context.Context, label string) (Specs, error) {
	if i == nil || i.completer == nil {
		return Specs{}, errors.New("lookup specs: completer unavailable")
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return Specs{}, errors.New("lookup specs: label required")
	}
	reply, err := i.completer.Complete(ctx, llm.Request{
		System:    SpecsSystemPrompt,
		Prompt:    SpecsPrompt(label),
		Schema:    specsSchema,
		MaxTokens: specsMaxTokens,
	})
	if err != nil {
		return Specs{}, fmt.Errorf("lookup specs: %w", err)
	}
	var specs Specs
	if err := llm.DecodeLLMJSON(reply, &specs); err != nil {
		i.logger.Warn("spec reply not decodable",
			logging.String(logging.FieldEventType, "specs_decode_failed"),
			logging.String(logging.FieldLabel, label),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "model ignored the JSON format"))
		return Specs{}, ErrNotFound
	}
	specs.DAC = textutil.StripQuotes(specs.DAC)
	specs.Laser = textutil.StripQuotes(specs.Laser)
	if specs.DAC == "" || specs.Laser == "" || isSentinel(specs.DAC) || isSentinel(specs.Laser) {
		return Specs{}, ErrNotFound
	}
	i.logger.Info("specs found",
		logging.String(logging.FieldEventType, "specs_hit"),
		logging.String(logging.FieldLabel, label),
		logging.String("dac", specs.DAC),
		logging.String("laser", specs.Laser))
	return specs, nil
}

func parseLabel(reply string) string {
	label := strings.TrimRight(textutil.FirstLine(reply), ".!")
	label = textutil.CollapseSpace(strings.TrimRight(textutil.StripQuotes(label), ".!"))
	if label == "" || isSentinel(label) || strings.Contains(strings.ToUpper(label), notFoundSentinel) {
		return ""
	}
	return label
}

func isSentinel(value string) bool {
	v := strings.ToUpper(strings.TrimSpace(value))
	return v == notFoundSentinel || v == "NOT FOUND" || v == "UNKNOWN" || v == "N/A"
}
