// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"postcraft/internal/models"
)

type fakeGenerator struct {
	answers   []string
	err       error
	prompts   []Prompt
	image     []byte
	imageMIME string
	imageErr  error
	moderated *ModerationResult
	modErr    error
}

func (f *fakeGenerator) Generate(_ context.Context, p Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return "", f.err
	}
	a := f.answers[0]
	f.answers = f.answers[1:]
	return a, nil
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt string) ([]byte, string, error) {
	f.prompts = append(f.prompts, Prompt{User: prompt})
	return f.image, f.imageMIME, f.imageErr
}

func (f *fakeGenerator) CheckPrompt(context.Context, string) (*ModerationResult, error) {
	if f.moderated == nil && f.modErr == nil {
		return &ModerationResult{Safe: true}, nil
	}
	return f.moderated, f.modErr
}

type fakeArchive struct {
	key  string
	data []byte
	mime string
}

func (a *fakeArchive) PutImage(_ context.Context, key string, data []byte, mime string) (string, error) {
	a.key, a.data, a.mime = key, data, mime
	return "https://cdn.example.com/" + key, nil
}

var acmeRequest = models.GenerationRequest{
	Platform: models.PlatformInstagram,
	Handle:   "Acme",
	Topic:    "launch",
	Brand:    models.BrandContext{BrandName: "Acme", Bio: "We build rockets.", BrandVoice: "Playful"},
}

const threeSuggestions = `[
 {"caption":"We have liftoff!","imageSuggestion":"A rocket at dawn","hashtags":["#launch","space","#rockets"]},
 {"caption":"Countdown is on","imageSuggestion":"Mission control","hashtags":["countdown"]},
 {"caption":"Meet the crew","imageSuggestion":"Team photo","hashtags":["team","  #crew "]}
]`

func TestGenerateContent(t *testing.T) {
	gen := &fakeGenerator{answers: []string{threeSuggestions}}
	g := NewGateway(gen)

	got, err := g.GenerateContent(context.Background(), acmeRequest)
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d suggestions", len(got))
	}
	if got[0].Hashtags[0] != "launch" || got[0].Hashtags[2] != "rockets" {
		t.Errorf("hashtags not cleaned: %v", got[0].Hashtags)
	}
	if got[2].Hashtags[1] != "crew" {
		t.Errorf("hashtags not trimmed: %v", got[2].Hashtags)
	}

	p := gen.prompts[0]
	if p.Temperature != contentTemperature || p.Schema != suggestionsSchema {
		t.Errorf("prompt settings = %v, %v", p.Temperature, p.Schema)
	}
	for _, want := range []string{"Instagram", "Acme", `"launch"`, "We build rockets.", "Playful", "Generate 3"} {
		if !strings.Contains(p.User, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateContentFencedAnswer(t *testing.T) {
	gen := &fakeGenerator{answers: []string{"```json\n" + threeSuggestions + "\n```"}}
	got, err := NewGateway(gen).GenerateContent(context.Background(), acmeRequest)
	if err != nil || len(got) != 3 {
		t.Fatalf("GenerateContent = %d, %v", len(got), err)
	}
}

func TestGenerateContentSimulatedVoice(t *testing.T) {
	gen := &fakeGenerator{answers: []string{threeSuggestions}}
	req := acmeRequest
	req.Brand = models.BrandContext{BrandName: "Acme"}

	if _, err := NewGateway(gen).GenerateContent(context.Background(), req); err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if !strings.Contains(gen.prompts[0].User, "simulated") {
		t.Error("prompt without a brand profile should simulate a voice from the handle")
	}
	if strings.Contains(gen.prompts[0].User, "provided by the user") {
		t.Error("prompt should not claim a provided brand context")
	}
}

func TestGenerateContentFailures(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"transport error", &fakeGenerator{err: errors.New("connection refused")}},
		{"invalid JSON", &fakeGenerator{answers: []string{"Sure! Here are some ideas"}}},
		{"empty array", &fakeGenerator{answers: []string{"[]"}}},
		{"object instead of array", &fakeGenerator{answers: []string{`{"caption":"x"}`}}},
		{"blank captions", &fakeGenerator{answers: []string{`[{"caption":"  "}]`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGateway(tt.gen).GenerateContent(context.Background(), acmeRequest)
			if !errors.Is(err, ErrContentGeneration) {
				t.Errorf("error = %v, want ErrContentGeneration", err)
			}
		})
	}
}

func TestGenerateContentTrimsExtraSuggestions(t *testing.T) {
	answer := `[{"caption":"1"},{"caption":"2"},{"caption":"3"},{"caption":"4"}]`
	got, err := NewGateway(&fakeGenerator{answers: []string{answer}}).GenerateContent(context.Background(), acmeRequest)
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if len(got) != SuggestionCount {
		t.Errorf("got %d suggestions", len(got))
	}
}

func TestGenerateContentModeration(t *testing.T) {
	gen := &fakeGenerator{moderated: &ModerationResult{Safe: false, Categories: []string{"violence"}}}
	_, err := NewGateway(gen).GenerateContent(context.Background(), acmeRequest)
	if !errors.Is(err, ErrContentGeneration) || !errors.Is(err, ErrUnsafePrompt) {
		t.Errorf("error = %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Error("flagged prompt reached the provider")
	}

	// An unreachable moderation API does not block generation.
	gen = &fakeGenerator{answers: []string{threeSuggestions}, modErr: errors.New("timeout")}
	if _, err := NewGateway(gen).GenerateContent(context.Background(), acmeRequest); err != nil {
		t.Errorf("moderation outage should not fail generation: %v", err)
	}
}

func TestGenerateFollowUpIdeas(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   int
	}{
		{"three ideas", `{"nextSteps":["a","b","c"]}`, 3},
		{"capped at five", `{"nextSteps":["1","2","3","4","5","6","7"]}`, 5},
		{"missing list", `{"ideas":["a"]}`, 0},
		{"wrong type", `{"nextSteps":"a, b"}`, 0},
		{"blank entries dropped", `{"nextSteps":["a"," ","b"]}`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{answers: []string{tt.answer}}
			got, err := NewGateway(gen).GenerateFollowUpIdeas(context.Background(), acmeRequest)
			if err != nil {
				t.Fatalf("GenerateFollowUpIdeas: %v", err)
			}
			if got == nil || len(got) != tt.want {
				t.Errorf("got %v, want %d ideas", got, tt.want)
			}
			if gen.prompts[0].Temperature != followUpTemperature {
				t.Errorf("temperature = %v", gen.prompts[0].Temperature)
			}
		})
	}
}

func TestGenerateFollowUpIdeasFailures(t *testing.T) {
	for _, gen := range []*fakeGenerator{
		{err: errors.New("503")},
		{answers: []string{"not json"}},
	} {
		_, err := NewGateway(gen).GenerateFollowUpIdeas(context.Background(), acmeRequest)
		if !errors.Is(err, ErrFollowUpGeneration) {
			t.Errorf("error = %v, want ErrFollowUpGeneration", err)
		}
	}
}

func TestGenerateImage(t *testing.T) {
	gen := &fakeGenerator{image: []byte{0xff, 0xd8, 0xff}, imageMIME: "image/jpeg"}
	img, err := NewGateway(gen).GenerateImage(context.Background(), "A rocket at dawn")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.Base64 != base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff}) {
		t.Errorf("Base64 = %s", img.Base64)
	}
	if !strings.HasPrefix(img.DataURL(), "data:image/jpeg;base64,") {
		t.Errorf("DataURL = %s", img.DataURL())
	}
	if !strings.Contains(gen.prompts[0].User, `"A rocket at dawn"`) {
		t.Errorf("image prompt = %s", gen.prompts[0].User)
	}
}

func TestGenerateImageFailures(t *testing.T) {
	cases := map[string]*fakeGenerator{
		"provider error": {imageErr: errors.New("quota")},
		"no data":        {imageMIME: "image/png"},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewGateway(gen).GenerateImage(context.Background(), "x")
			if !errors.Is(err, ErrImageGeneration) {
				t.Errorf("error = %v", err)
			}
		})
	}

	if _, err := NewGateway(&fakeGenerator{}).GenerateImage(context.Background(), "  "); !errors.Is(err, ErrImageGeneration) {
		t.Errorf("empty prompt error = %v", err)
	}
}

func TestArchive(t *testing.T) {
	archive := &fakeArchive{}
	g := NewGateway(&fakeGenerator{}, WithArchive(archive))

	img := Image{Base64: base64.StdEncoding.EncodeToString([]byte("png")), MIMEType: "image/png"}
	got, err := g.Archive(context.Background(), "client-1", "A Rocket at Dawn!", img)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !strings.HasPrefix(archive.key, "images/client-1/a-rocket-at-dawn-") || !strings.HasSuffix(archive.key, ".png") {
		t.Errorf("key = %s", archive.key)
	}
	if string(archive.data) != "png" || archive.mime != "image/png" {
		t.Errorf("uploaded %q as %s", archive.data, archive.mime)
	}
	if got.URL != "https://cdn.example.com/"+archive.key {
		t.Errorf("URL = %s", got.URL)
	}

	// Without an archive the image passes through.
	plain, err := NewGateway(&fakeGenerator{}).Archive(context.Background(), "c", "x", img)
	if err != nil || plain.URL != "" {
		t.Errorf("Archive without store = %+v, %v", plain, err)
	}
}

func TestUnwrapJSON(t *testing.T) {
	tests := map[string]string{
		`[1]`:                 `[1]`,
		"```json\n[1]\n```":   `[1]`,
		"```\n{\"a\":1}\n```": `{"a":1}`,
		"  ```json [1]```  ":  `[1]`,
	}
	for in, want := range tests {
		if got := unwrapJSON(in); got != want {
			t.Errorf("unwrapJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
