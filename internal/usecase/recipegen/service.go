package recipegen

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nutriplate/nutriplate/internal/domain"
	"github.com/nutriplate/nutriplate/internal/domain/recipe"
	"github.com/nutriplate/nutriplate/internal/logger"
	"github.com/nutriplate/nutriplate/internal/metrics"
)

// DefaultVisionTemperature keeps vision output close to the requested schema.
const DefaultVisionTemperature = 0.2

// Service generates recipes from images or text requests.
type Service struct {
	vision      VisionGenerator
	text        TextGenerator
	retriever   ContextRetriever
	counter     RecipeCounter
	temperature float64
}

// New creates a recipe generation service. retriever and counter can be nil.
func New(vision VisionGenerator, text TextGenerator, retriever ContextRetriever, counter RecipeCounter) *Service {
	return &Service{
		vision:      vision,
		text:        text,
		retriever:   retriever,
		counter:     counter,
		temperature: DefaultVisionTemperature,
	}
}

// WithTemperature overrides the vision sampling temperature.
func (s *Service) WithTemperature(t float64) *Service {
	if t >= 0 {
		s.temperature = t
	}
	return s
}

// FromImage asks the vision model for a recipe matching image.
// Upstream failures are returned unchanged; malformed output is never an error.
func (s *Service) FromImage(ctx context.Context, image []byte, dietaryPreference string) (recipe.Result, error) {
	if len(image) == 0 {
		return recipe.Result{}, fmt.Errorf("image: %w", domain.ErrInputMissing)
	}

	raw, err := s.vision.GenerateFromImage(ctx, VisionPrompt, image, domain.GenerateOptions{Temperature: s.temperature})
	if err != nil {
		return recipe.Result{}, fmt.Errorf("generate from image: %w", err)
	}

	res := recipe.Coerce(raw, strings.TrimSpace(dietaryPreference), s.fallbackID(ctx))
	s.observe(ctx, "vision", res)
	return res, nil
}

// FromText generates a recipe for a free-form request, grounded in the knowledge base.
func (s *Service) FromText(ctx context.Context, request, dietaryPreference string) (recipe.Result, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return recipe.Result{}, fmt.Errorf("prompt: %w", domain.ErrInputMissing)
	}
	dietaryPreference = strings.TrimSpace(dietaryPreference)

	var guidance []string
	if s.retriever != nil {
		docs, err := s.retriever.Context(ctx, request)
		if err != nil {
			return recipe.Result{}, fmt.Errorf("retrieve guidance: %w", err)
		}
		guidance = docs
	}

	raw, err := s.text.GenerateText(ctx, TextPrompt(request, dietaryPreference, guidance))
	if err != nil {
		return recipe.Result{}, fmt.Errorf("generate from text: %w", err)
	}

	res := recipe.Coerce(raw, dietaryPreference, s.fallbackID(ctx))
	s.observe(ctx, "text", res)
	return res, nil
}

// fallbackID numbers generated recipes after the catalog size. The catalog is
// only counted when the model output carries no id. Without a counter, or if
// counting fails, the bare default id is used.
func (s *Service) fallbackID(ctx context.Context) recipe.Option {
	return recipe.WithFallbackID(func() string {
		if s.counter == nil {
			return recipe.DefaultID
		}
		n, err := s.counter.Count(ctx)
		if err != nil {
			logger.FromContext(ctx).Warn("Failed to count recipes for fallback id", zap.Error(err))
			return recipe.DefaultID
		}
		return recipe.DefaultID + "-" + strconv.Itoa(n+1)
	})
}

func (s *Service) observe(ctx context.Context, kind string, res recipe.Result) {
	metrics.RecipeCoercionTotal.WithLabelValues(string(res.Status), string(res.Source)).Inc()

	l := logger.FromContext(ctx)
	l.Debug("Recipe coerced", zap.String("kind", kind), zap.Stringer("result", res))
	if res.Status == recipe.StatusDefault {
		l.Warn("Model output had no JSON object, using default recipe", zap.String("kind", kind))
		return
	}
	if len(res.Defaulted) > 0 {
		l.Info("Recipe fields defaulted",
			zap.String("kind", kind),
			zap.String("source", string(res.Source)),
			zap.Strings("fields", res.Defaulted),
		)
	}
}
