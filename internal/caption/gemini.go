package caption

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/okanehara/rubi/internal/subtitles"
)

// Captioner produces timed captions from a narration audio file.
type Captioner interface {
	Caption(ctx context.Context, audioPath string) ([]Item, error)
}

// GeminiCaptioner implements Captioner using Google Gemini.
type GeminiCaptioner struct {
	client *genai.Client
	model  string
}

// captionRecord is one entry of Gemini's JSON response.
type captionRecord struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Speaker string `json:"speaker"`
	Text    string `json:"text_ja"`
}

func NewGeminiCaptioner(ctx context.Context, apiKey, model string) (*GeminiCaptioner, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiCaptioner{
		client: client,
		model:  model,
	}, nil
}

// Caption uploads the audio and asks the model for timed Japanese
// captions.
func (c *GeminiCaptioner) Caption(ctx context.Context, audioPath string) ([]Item, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	uploadedFile, err := c.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}

	defer func() {
		_, _ = c.client.Files.Delete(ctx, uploadedFile.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(captionPrompt()),
		genai.NewPartFromURI(uploadedFile.URI, uploadedFile.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("captioning failed: %w", err)
	}

	return c.parseResponse(result)
}

func captionPrompt() string {
	var sb strings.Builder

	sb.WriteString("Listen to this Japanese narration and produce timed captions. ")
	sb.WriteString("Split the speech into natural sentence-level segments. ")
	sb.WriteString("For each segment provide the start timestamp, end timestamp, the speaker name if identifiable, ")
	sb.WriteString("and the exact Japanese text spoken. ")
	sb.WriteString("Format your response as a JSON array of objects with 'start', 'end', 'speaker' and 'text_ja' fields, ")
	sb.WriteString("where timestamps use the HH:MM:SS,mmm format. ")
	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")

	return sb.String()
}

func (c *GeminiCaptioner) parseResponse(result *genai.GenerateContentResponse) ([]Item, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					responseText += part.Text
				}
			}
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	var records []captionRecord
	if err := decodeJSONArray(responseText, &records); err != nil {
		return nil, fmt.Errorf("failed to parse caption response: %w", err)
	}

	items := make([]Item, 0, len(records))
	for i, rec := range records {
		start, err := subtitles.ParseSRTTime(rec.Start)
		if err != nil {
			return nil, fmt.Errorf("caption %d has bad start time %q: %w", i, rec.Start, err)
		}
		end, err := subtitles.ParseSRTTime(rec.End)
		if err != nil {
			return nil, fmt.Errorf("caption %d has bad end time %q: %w", i, rec.End, err)
		}
		items = append(items, Item{
			Start:   start,
			End:     end,
			Speaker: strings.TrimSpace(rec.Speaker),
			TextJA:  strings.TrimSpace(rec.Text),
		})
	}

	return items, nil
}
