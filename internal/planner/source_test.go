package planner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap/zaptest"

	"nutrision/internal/llm"
	"nutrision/internal/recipe"
	"nutrision/internal/shared"
)

type MockStructuredGenerator struct {
	Content string
	Err     error
	Calls   int
	Prompt  string
	Schema  *genai.Schema
}

func (m *MockStructuredGenerator) GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (llm.ContentResponse, error) {
	m.Calls++
	m.Prompt = prompt
	m.Schema = schema
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{
		Content: m.Content,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 900, TotalTokens: 1000, Model: "gemini-test"},
	}, nil
}

// generatedDays renames the static recipes so a generated plan can be told
// apart from the static one.
func generatedDays(t *testing.T) string {
	t.Helper()
	static, err := StaticPlan()
	if err != nil {
		t.Fatalf("StaticPlan failed: %v", err)
	}
	data, err := json.Marshal(static.Days)
	if err != nil {
		t.Fatalf("failed to marshal days: %v", err)
	}
	return strings.ReplaceAll(string(data), "Lomo Saltado", "Lomo Saltado IA")
}

func newTestSource(t *testing.T, opts ...Option) *Source {
	t.Helper()
	opts = append([]Option{WithStaticDelay(0)}, opts...)
	s, err := NewSource(zaptest.NewLogger(t), opts...)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	return s
}

func TestSourceGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("StaticPlan", func(t *testing.T) {
		gen := &MockStructuredGenerator{Content: generatedDays(t)}
		s := newTestSource(t, WithGenerator(gen))

		res, err := s.Generate(ctx, false)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if res.Origin != OriginStatic || res.Err != nil {
			t.Errorf("Expected a static result, got %s (%v)", res.Origin, res.Err)
		}
		if gen.Calls != 0 {
			t.Errorf("Expected the generator to stay idle, got %d calls", gen.Calls)
		}
		if err := res.Plan.Validate(); err != nil {
			t.Errorf("Expected a valid static plan, got %v", err)
		}
	})

	t.Run("StaticPlanWaitsForDelay", func(t *testing.T) {
		s := newTestSource(t, WithStaticDelay(30*time.Millisecond))
		start := time.Now()
		if _, err := s.Generate(ctx, false); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
			t.Errorf("Expected at least 30ms, took %v", elapsed)
		}
	})

	t.Run("StaticPlanHonoursCancellation", func(t *testing.T) {
		s := newTestSource(t, WithStaticDelay(time.Hour))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := s.Generate(cctx, false); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})

	t.Run("FreshWeekIDs", func(t *testing.T) {
		s := newTestSource(t)
		a, _ := s.Generate(ctx, false)
		b, _ := s.Generate(ctx, false)
		if a.Plan.WeekID == "" || a.Plan.WeekID == b.Plan.WeekID {
			t.Errorf("Expected distinct week ids, got %q and %q", a.Plan.WeekID, b.Plan.WeekID)
		}
	})

	t.Run("Generated", func(t *testing.T) {
		gen := &MockStructuredGenerator{Content: generatedDays(t)}
		s := newTestSource(t, WithGenerator(gen))

		res, err := s.Generate(ctx, true)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if res.Origin != OriginGenerated {
			t.Fatalf("Expected a generated plan, got %s (%v)", res.Origin, res.Err)
		}
		world := res.Plan.Days[4].Dinner.For(recipe.DietWorld)
		if world.Title != "Lomo Saltado IA" {
			t.Errorf("Expected the generated recipe, got %q", world.Title)
		}
		if res.Meta.AgentName != AgentName || res.Meta.Usage.TotalTokens != 1000 {
			t.Errorf("Unexpected meta %+v", res.Meta)
		}
		if !strings.Contains(gen.Prompt, "Lundi-Dimanche") || !strings.Contains(gen.Prompt, "Aligro") {
			t.Errorf("Prompt is missing the week or the stores:\n%s", gen.Prompt)
		}
		if gen.Schema == nil || gen.Schema.Type != genai.TypeArray {
			t.Errorf("Expected an array schema, got %+v", gen.Schema)
		}
	})

	fallbacks := []struct {
		name string
		gen  *MockStructuredGenerator
	}{
		{name: "ProviderError", gen: &MockStructuredGenerator{Err: errors.New("quota exceeded")}},
		{name: "NotJSON", gen: &MockStructuredGenerator{Content: "Voici votre plan !"}},
		{name: "WrongDayCount", gen: &MockStructuredGenerator{Content: `[{"day": "Lundi"}]`}},
		{name: "MissingVariant", gen: &MockStructuredGenerator{Content: strings.Replace(generatedDays(t), `"vegan":`, `"paleo":`, 1)}},
	}
	for _, tt := range fallbacks {
		t.Run("FallbackOn"+tt.name, func(t *testing.T) {
			s := newTestSource(t, WithGenerator(tt.gen))
			res, err := s.Generate(ctx, true)
			if err != nil {
				t.Fatalf("Expected fallback, got error %v", err)
			}
			if res.Origin != OriginFallback || res.Err == nil {
				t.Fatalf("Expected a fallback with a diagnostic, got %s (%v)", res.Origin, res.Err)
			}
			static, _ := StaticPlan()
			if res.Plan.Days[0].Breakfast.Standard != static.Days[0].Breakfast.Standard {
				t.Error("Expected the static plan")
			}
		})
	}

	t.Run("FallbackWithoutGenerator", func(t *testing.T) {
		res, err := newTestSource(t).Generate(ctx, true)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if res.Origin != OriginFallback || !errors.Is(res.Err, ErrGeneratorUnavailable) {
			t.Errorf("Expected ErrGeneratorUnavailable fallback, got %s (%v)", res.Origin, res.Err)
		}
	})

	t.Run("FallbackWhenRateLimited", func(t *testing.T) {
		gen := &MockStructuredGenerator{Content: generatedDays(t)}
		s := newTestSource(t, WithGenerator(gen), WithRateLimit(1, 1))

		first, _ := s.Generate(ctx, true)
		second, _ := s.Generate(ctx, true)
		if first.Origin != OriginGenerated {
			t.Errorf("Expected the first call to generate, got %s", first.Origin)
		}
		if second.Origin != OriginFallback || !errors.Is(second.Err, ErrRateLimited) {
			t.Errorf("Expected a rate-limited fallback, got %s (%v)", second.Origin, second.Err)
		}
		if gen.Calls != 1 {
			t.Errorf("Expected 1 generator call, got %d", gen.Calls)
		}
	})
}

func TestWeeklyPlanSchema(t *testing.T) {
	schema := weeklyPlanSchema()
	day := schema.Items
	for _, slot := range recipe.MealSlots {
		variants, ok := day.Properties[string(slot)]
		if !ok {
			t.Fatalf("Expected %s in the day schema", slot)
		}
		if len(variants.Required) != len(recipe.DietModes) {
			t.Errorf("Expected every diet mode required for %s, got %v", slot, variants.Required)
		}
		prices := variants.Properties["vegan"].Properties["priceComparison"]
		if len(prices.Properties) != len(recipe.Supermarkets) {
			t.Errorf("Expected a price per store, got %d", len(prices.Properties))
		}
	}
}
