package fortune

import (
	"context"
	"time"

	"github.com/fortuneatelier/fortune-backend/pkg/logger"
)

const defaultTimeout = 45 * time.Second

// Completer sends one system + user exchange to a text model and returns the raw reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator produces the seven report sections. It always returns a usable
// result: upstream errors and malformed output fall back to the template.
type Generator struct {
	completer Completer
	timeout   time.Duration
	logg      *logger.Logger
}

// NewGenerator accepts a nil completer, in which case every report uses the template.
func NewGenerator(completer Completer, timeout time.Duration, logg *logger.Logger) *Generator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Generator{completer: completer, timeout: timeout, logg: logg}
}

func (g *Generator) Generate(ctx context.Context, profile Profile) Result {
	if sections, ok := g.fromCompleter(ctx, profile); ok {
		return Result{Sections: postProcess(sections), Source: SourceAI}
	}
	return Result{Sections: postProcess(Template(profile)), Source: SourceTemplate}
}

func (g *Generator) fromCompleter(ctx context.Context, profile Profile) ([]Section, bool) {
	if g.completer == nil {
		return nil, false
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.completer.Complete(callCtx, systemPrompt, userPrompt(profile))
	if err != nil {
		g.logg.Warn(g.logg.WithField(ctx, "error", err.Error()), "fortune.completion_failed")
		return nil, false
	}

	if sections, ok := parseSections(raw); ok {
		return sections, true
	}
	if inner, found := extractBracketed(raw); found {
		if sections, ok := parseSections(inner); ok {
			g.logg.Debug(ctx, "fortune.recovered_bracketed_payload")
			return sections, true
		}
	}

	g.logg.Warn(g.logg.WithField(ctx, "response_bytes", len(raw)), "fortune.unusable_completion")
	return nil, false
}
