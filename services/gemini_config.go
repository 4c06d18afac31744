package services

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/auth/credentials"
	"google.golang.org/genai"
)

const documentMIMEType = "application/pdf"

// ContentGenerator is the slice of the genai client the answer service needs.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// DefaultVertexLocation is used when neither LOCATION nor
// GOOGLE_CLOUD_LOCATION name a region.
const DefaultVertexLocation = "us-central1"

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// detectProjectID reads the project from application default credentials.
var detectProjectID = func(ctx context.Context) (string, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes: []string{cloudPlatformScope},
	})
	if err != nil {
		return "", err
	}
	return creds.ProjectID(ctx)
}

// NewVertexGenerator connects to Gemini through Vertex AI using application
// default credentials. An empty project or location is filled from the
// environment and the credentials. The returned generator is never nil: when
// the client cannot be built it fails every call with the construction error,
// so the process still starts and each request ends as a model failure.
func NewVertexGenerator(ctx context.Context, projectID, location string) (ContentGenerator, error) {
	projectID, location = resolveVertexTarget(ctx, projectID, location)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		err = fmt.Errorf("create genai client: %w", err)
		return unavailableGenerator{err: err}, err
	}
	return client.Models, nil
}

func resolveVertexTarget(ctx context.Context, projectID, location string) (string, string) {
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if projectID == "" {
		if detected, err := detectProjectID(ctx); err == nil {
			projectID = detected
		}
	}

	if location == "" {
		location = os.Getenv("GOOGLE_CLOUD_LOCATION")
	}
	if location == "" {
		location = DefaultVertexLocation
	}
	return projectID, location
}

// unavailableGenerator stands in for a genai client that could not be built.
type unavailableGenerator struct {
	err error
}

func (g unavailableGenerator) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, g.err
}

// GenerationConfig returns the sampling and safety settings used for every
// answer. Low temperature keeps answers close to the document; a single
// candidate is requested.
func GenerationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		TopP:            genai.Ptr[float32](0.9),
		TopK:            genai.Ptr[float32](40),
		CandidateCount:  1,
		MaxOutputTokens: 2048,
		SafetySettings:  SafetySettings(),
	}
}

// SafetySettings disables blocking for every harm category. Court records
// routinely describe violence, abuse and similar matters.
func SafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryCivicIntegrity,
	}

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return settings
}

// buildContents assembles the single user turn: the prompt followed by the
// case document referenced by its storage URI.
func buildContents(prompt, documentURI string) []*genai.Content {
	return []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{FileData: &genai.FileData{FileURI: documentURI, MIMEType: documentMIMEType}},
			},
		},
	}
}
