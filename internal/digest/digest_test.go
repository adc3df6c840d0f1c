package digest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Sravan1011/Clamify/internal/model"
)

func sampleVerdict() *model.Verdict {
	prob := 5.0
	return &model.Verdict{
		Claim:            "The Earth is flat",
		Label:            model.LabelDebunked,
		ConfidenceScore:  0.95,
		TruthProbability: &prob,
		Summary:          "Overwhelming evidence contradicts the claim.",
		Sources: []model.Source{
			{Title: "NASA", URL: "https://nasa.gov/earth", Host: "nasa.gov"},
		},
	}
}

func TestNew_DisabledWhenNoProvider(t *testing.T) {
	d, err := New(model.DigestConfig{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if d != nil {
		t.Error("Expected nil digester for empty provider")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(model.DigestConfig{Provider: "gemini"})
	if err == nil {
		t.Fatal("Expected error for unknown provider, got nil")
	}
}

func TestNew_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(model.DigestConfig{Provider: "openai"})
	if err == nil {
		t.Fatal("Expected error without API key, got nil")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleVerdict())

	for _, want := range []string{
		"Claim: The Earth is flat",
		"Verdict: DEBUNKED",
		"Confidence: 95%",
		"Truth probability: 5%",
		"https://nasa.gov/earth",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
	if !strings.Contains(prompt, "Do NOT re-evaluate") {
		t.Error("Prompt missing re-evaluation guard")
	}
}

func TestBuildPrompt_SourceCap(t *testing.T) {
	v := sampleVerdict()
	v.Sources = nil
	for i := 0; i < 15; i++ {
		v.Sources = append(v.Sources, model.Source{
			Title: "Source", URL: "https://example.com",
		})
	}

	prompt := BuildPrompt(v)
	if !strings.Contains(prompt, "... and 5 more") {
		t.Errorf("Expected source list capped at 10, got:\n%s", prompt)
	}
}

func TestDigester_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header: %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: "  The claim was debunked with high confidence.  ",
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	d, err := New(model.DigestConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Timeout:  5,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := d.Generate(context.Background(), sampleVerdict())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "The claim was debunked with high confidence." {
		t.Errorf("Unexpected digest: %q", out)
	}
}

func TestDigester_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	d, err := New(model.DigestConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Timeout:  5,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = d.Generate(context.Background(), sampleVerdict())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "openai digest") {
		t.Errorf("Expected provider-tagged error, got: %v", err)
	}
}

func TestDigester_Generate_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d, err := New(model.DigestConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Timeout:  5,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = d.Generate(ctx, sampleVerdict())
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestDigester_Generate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "chatcmpl-2"})
	}))
	defer server.Close()

	d, err := New(model.DigestConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Timeout:  5,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = d.Generate(context.Background(), sampleVerdict())
	if err == nil {
		t.Fatal("Expected error for empty choices, got nil")
	}
}
