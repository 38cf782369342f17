package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendwise/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestParseDraft(t *testing.T) {
	output := "```json\n{\n  \"amount\": 42.5,\n  \"merchant\": \"Corner Shop\",\n  \"date\": \"2024-03-09\",\n  \"category_hint\": \"grocery\",\n  \"items\": [{\"name\": \"milk\", \"price\": 2.5}]\n}\n```"

	draft, err := ParseDraft(output)
	require.NoError(t, err)
	assert.Equal(t, "42.5", draft.Amount.String())
	assert.Equal(t, "Corner Shop", draft.Description)
	require.NotNil(t, draft.Date)
	assert.Equal(t, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), *draft.Date)
	assert.Equal(t, "grocery", draft.CategoryHint)
	assert.JSONEq(t, `{"amount":42.5,"merchant":"Corner Shop","date":"2024-03-09","category_hint":"grocery","items":[{"name":"milk","price":2.5}]}`, string(draft.RawMetadata))
}

func TestParseDraft_StringAmountAndBadDate(t *testing.T) {
	draft, err := ParseDraft(`{"amount":"8.00","description":"coffee","date":"yesterday","transcription":" eight for coffee "}`)
	require.NoError(t, err)
	assert.Equal(t, "8", draft.Amount.String())
	assert.Nil(t, draft.Date)
	assert.Equal(t, "eight for coffee", draft.Transcription)
}

func TestParseDraft_Errors(t *testing.T) {
	cases := []struct {
		name   string
		output string
		kind   error
	}{
		{"empty", "  ", service.ErrUpstream},
		{"not json", "I could not read the receipt", service.ErrUpstream},
		{"missing amount", `{"description":"x"}`, service.ErrInvalidOperation},
		{"zero amount", `{"amount":0}`, service.ErrInvalidOperation},
		{"negative amount", `{"amount":-3}`, service.ErrInvalidOperation},
		{"unparseable amount", `{"amount":"$3"}`, service.ErrInvalidOperation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDraft(tc.output)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestGeminiExtractor(t *testing.T) {
	var gotParts []*genai.Part
	e := newExtractor(func(_ context.Context, parts []*genai.Part) (string, error) {
		gotParts = parts
		return `{"amount": 12, "description": "taxi", "category_hint": "transport"}`, nil
	})

	draft, err := e.ExtractReceipt(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "taxi", draft.Description)
	require.Len(t, gotParts, 2)
	assert.Equal(t, receiptPrompt, gotParts[0].Text)
	require.NotNil(t, gotParts[1].InlineData)
	assert.Equal(t, "image/jpeg", gotParts[1].InlineData.MIMEType)

	_, err = e.ExtractVoice(context.Background(), nil, "audio/webm")
	assert.ErrorIs(t, err, service.ErrUpstream)
}

func TestGeminiExtractor_UpstreamFailure(t *testing.T) {
	e := newExtractor(func(context.Context, []*genai.Part) (string, error) {
		return "", errors.New("quota exceeded")
	})
	_, err := e.ExtractVoice(context.Background(), []byte("audio"), "audio/webm")
	assert.ErrorIs(t, err, service.ErrUpstream)
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: `{"amount":`}, {Text: `1}`}}},
		}},
	}
	assert.Equal(t, `{"amount":1}`, responseText(resp))
}

func TestNewGeminiExtractor_RequiresKey(t *testing.T) {
	_, err := NewGeminiExtractor(context.Background(), "", "gemini-2.0-flash")
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	var u Unavailable
	_, err := u.ExtractReceipt(context.Background(), []byte("img"), "image/png")
	assert.ErrorIs(t, err, service.ErrUpstream)
	_, err = u.ExtractVoice(context.Background(), []byte("audio"), "audio/webm")
	assert.ErrorIs(t, err, service.ErrUpstream)
}
