package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jobhound/jobhound/internal/ai/mocks"
	"github.com/jobhound/jobhound/internal/secrets"
)

func TestSelectPicksFirstConfiguredProvider(t *testing.T) {
	keyring.MockInit()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	gen := mocks.NewMockTextGenerator(ctrl)
	gen.EXPECT().Name().Return("anthropic").AnyTimes()
	gen.EXPECT().Model().Return("claude").AnyTimes()

	var gotKey string
	factories := []Factory{
		{
			Name: ProviderOpenAI,
			Key:  secrets.Source{Name: "openai key"},
			New: func(context.Context, string) (TextGenerator, error) {
				t.Fatal("openai factory must not be called without a key")
				return nil, nil
			},
		},
		{
			Name: ProviderAnthropic,
			Key:  secrets.Source{Name: "anthropic key", Value: " sk-ant "},
			New: func(_ context.Context, key string) (TextGenerator, error) {
				gotKey = key
				return gen, nil
			},
		},
		{
			Name: ProviderGemini,
			Key:  secrets.Source{Name: "gemini key", Value: "g"},
			New: func(context.Context, string) (TextGenerator, error) {
				t.Fatal("later providers must not be built")
				return nil, nil
			},
		},
	}

	core, observed := observer.New(zapcore.InfoLevel)
	selected := Select(context.Background(), factories, zap.New(core))
	if selected != gen {
		t.Fatalf("expected anthropic generator, got %v", selected)
	}
	if gotKey != "sk-ant" {
		t.Fatalf("expected trimmed key, got %q", gotKey)
	}

	entries := observed.FilterMessage("using text generator").All()
	if len(entries) != 1 || entries[0].ContextMap()["ai_provider"] != "anthropic" {
		t.Fatalf("expected provider log entry, got %+v", entries)
	}
}

func TestSelectSkipsFailingProviders(t *testing.T) {
	keyring.MockInit()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	gen := mocks.NewMockTextGenerator(ctrl)
	gen.EXPECT().Name().Return("gemini").AnyTimes()
	gen.EXPECT().Model().Return("gemini-2.5-pro").AnyTimes()

	factories := []Factory{
		{
			Name: ProviderOpenAI,
			Key:  secrets.Source{Value: "k"},
			New: func(context.Context, string) (TextGenerator, error) {
				return nil, errors.New("boom")
			},
		},
		{
			Name: ProviderGemini,
			Key:  secrets.Source{Value: "k"},
			New: func(context.Context, string) (TextGenerator, error) {
				return gen, nil
			},
		},
	}

	if got := Select(context.Background(), factories, nil); got != gen {
		t.Fatalf("expected gemini generator, got %v", got)
	}
}

func TestSelectWithoutKeys(t *testing.T) {
	keyring.MockInit()

	core, observed := observer.New(zapcore.InfoLevel)
	factories := []Factory{
		{Name: ProviderOpenAI, Key: secrets.Source{KeyringAccount: ProviderOpenAI}},
		{Name: ProviderAnthropic, Key: secrets.Source{}},
	}

	if got := Select(context.Background(), factories, zap.New(core)); got != nil {
		t.Fatalf("expected template mode, got %v", got)
	}
	if observed.FilterMessage("no AI API key found, falling back to templates").Len() != 1 {
		t.Fatalf("expected fallback log entry")
	}
}

func TestOrder(t *testing.T) {
	factories := []Factory{{Name: ProviderOpenAI}, {Name: ProviderAnthropic}, {Name: ProviderGemini}}

	got := Order(factories, []string{ProviderGemini, "unknown", ProviderGemini, ProviderOpenAI})
	names := make([]string, 0, len(got))
	for _, f := range got {
		names = append(names, f.Name)
	}

	want := []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic}
	if len(names) != len(want) {
		t.Fatalf("unexpected order: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected order: %v", names)
		}
	}
}
