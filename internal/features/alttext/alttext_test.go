package alttext

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/store/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockAI struct {
	mock.Mock
}

func (m *MockAI) Generate(ctx context.Context, req ai.GenerateRequest) (*ai.Generation, error) {
	args := m.Called(ctx, req)
	gen, _ := args.Get(0).(*ai.Generation)
	return gen, args.Error(1)
}

func success(provider ai.ProviderName, fields map[string]string) *ai.Generation {
	return &ai.Generation{
		ID:       "gen-1",
		Feature:  Feature,
		Result:   &ai.Result{Provider: provider, Fields: fields},
		Attempts: []ai.Attempt{{Provider: provider, Outcome: ai.OutcomeSuccess}},
	}
}

func TestGenerate_BuildsVisionRequest(t *testing.T) {
	m := new(MockAI)
	m.On("Generate", mock.Anything, mock.MatchedBy(func(r ai.GenerateRequest) bool {
		return r.Feature == Feature &&
			r.Capability == ai.VisionCapable &&
			r.Image != nil && r.Image.URL == "https://example.co.uk/carer.jpg" &&
			r.Preferred == ai.Anthropic &&
			len(r.Messages) == 1 &&
			strings.Contains(r.Messages[0].Text, "Page title: Moving and Handling") &&
			r.Accept(ai.Result{Fields: map[string]string{"title": "t"}}) &&
			!r.Accept(ai.Result{Fields: map[string]string{"caption": "c"}})
	})).Return(success(ai.Anthropic, map[string]string{
		"title": "Hoist training", "caption": "Learners practise", "alt": "Two carers use a hoist", "description": "A session.",
	}), nil).Once()

	g := New(m, nil, time.Hour, zap.NewNop())
	res, err := g.Generate(context.Background(), Request{
		ImageURL:  " https://example.co.uk/carer.jpg ",
		PageTitle: "Moving and Handling",
		Preferred: ai.Anthropic,
	})

	require.NoError(t, err)
	assert.Equal(t, "Two carers use a hoist", res.Alt)
	assert.Equal(t, "Hoist training", res.Title)
	assert.Equal(t, ai.Anthropic, res.Provider)
	assert.False(t, res.Cached)
	m.AssertExpectations(t)
}

func TestGenerate_MissingImage(t *testing.T) {
	m := new(MockAI)
	g := New(m, nil, time.Hour, zap.NewNop())

	_, err := g.Generate(context.Background(), Request{ImageURL: "  "})

	assert.ErrorIs(t, err, ErrMissingImage)
	m.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerate_CachesSuccess(t *testing.T) {
	m := new(MockAI)
	m.On("Generate", mock.Anything, mock.Anything).
		Return(success(ai.OpenAI, map[string]string{"alt": "A nurse smiling"}), nil).Once()

	c := cache.NewMemoryCache()
	g := New(m, c, time.Hour, zap.NewNop())
	req := Request{ImageURL: "https://example.co.uk/nurse.jpg", Filename: "nurse.jpg"}

	first, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "A nurse smiling", second.Alt)
	assert.Equal(t, ai.OpenAI, second.Provider)
	assert.Empty(t, second.Attempts)

	m.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGenerate_ExhaustedNotCached(t *testing.T) {
	exhausted := &ai.ExhaustedError{}
	m := new(MockAI)
	m.On("Generate", mock.Anything, mock.Anything).
		Return(&ai.Generation{Exhausted: true}, exhausted).Twice()

	g := New(m, cache.NewMemoryCache(), time.Hour, zap.NewNop())
	req := Request{ImageURL: "https://example.co.uk/x.png"}

	for i := 0; i < 2; i++ {
		res, err := g.Generate(context.Background(), req)
		assert.Nil(t, res)
		assert.True(t, ai.IsExhausted(err))
		assert.Equal(t, ai.ExhaustedMessage, err.Error())
	}
	m.AssertNumberOfCalls(t, "Generate", 2)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string, interface{}) error { return errors.New("conn refused") }
func (brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("conn refused")
}
func (brokenCache) Delete(context.Context, string) error { return nil }

func TestGenerate_CacheErrorsIgnored(t *testing.T) {
	m := new(MockAI)
	m.On("Generate", mock.Anything, mock.Anything).
		Return(success(ai.Groq, map[string]string{"title": "Certificate"}), nil).Once()

	g := New(m, brokenCache{}, time.Hour, zap.NewNop())
	res, err := g.Generate(context.Background(), Request{ImageURL: "data:image/png;base64,AAAA"})

	require.NoError(t, err)
	assert.Equal(t, "Certificate", res.Title)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(Request{ImageURL: "https://x/a.jpg", Context: "ctx", Preferred: ai.OpenAI})
	b := CacheKey(Request{ImageURL: " https://x/a.jpg ", Context: "ctx", Preferred: ai.Groq})
	c := CacheKey(Request{ImageURL: "https://x/a.jpg", Context: "other"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "alttext:")
}
