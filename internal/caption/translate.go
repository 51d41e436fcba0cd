package caption

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okanehara/rubi/internal/subtitles"
)

// single text item to translate
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// translated text item
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Translator renders caption texts into another language.
type Translator interface {
	Translate(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const DefaultBatchSize = 50

type TranslateOptions struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	BatchSize      int // items per API request (default 50)
	Concurrency    int // parallel API requests (default 3)
}

func (o TranslateOptions) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o TranslateOptions) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return 3
}

// Factory creates a Translator based on provider.
func Factory(ctx context.Context, provider Provider, apiKey string, opts TranslateOptions) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// buildTranslatePrompt creates the translation prompt shared by all
// LLM providers.
func buildTranslatePrompt(opts TranslateOptions, items []TranslationItem) string {
	var sb strings.Builder

	if opts.InputLanguage != "" {
		sb.WriteString(fmt.Sprintf(
			"Translate the following %s caption texts to %s.\n\n",
			opts.InputLanguage, opts.TargetLanguage))
	} else {
		sb.WriteString(fmt.Sprintf(
			"Translate the following caption texts to %s.\n\n",
			opts.TargetLanguage))
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning.\n")
	sb.WriteString("2. Preserve line breaks in the same positions.\n")
	sb.WriteString("3. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("4. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString("5. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("6. Do not add any explanation or markdown formatting.\n\n")

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}

// parseTranslationResults decodes a provider response and checks that
// every input item came back.
func parseTranslationResults(responseText string, expectedCount int) ([]TranslationResult, error) {
	var results []TranslationResult
	if err := decodeJSONArray(responseText, &results); err != nil {
		return nil, err
	}

	if len(results) != expectedCount {
		return nil, fmt.Errorf("expected %d results, got %d", expectedCount, len(results))
	}

	return results, nil
}

// batchFunc translates one batch with a single API request.
type batchFunc func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)

const maxBatchAttempts = 3

// withRetry re-runs a failed batch; model responses are flaky enough
// that a malformed reply usually succeeds on the next attempt.
func withRetry(fn batchFunc) batchFunc {
	return func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error) {
		var lastErr error
		for attempt := 0; attempt < maxBatchAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results, err := fn(ctx, items)
			if err == nil {
				return results, nil
			}
			lastErr = err
		}
		return nil, fmt.Errorf("after %d attempts: %w", maxBatchAttempts, lastErr)
	}
}

// runBatches splits items into batches of opts.BatchSize and runs them
// through fn with up to opts.Concurrency workers, returning results in
// index order. The first batch failure cancels the rest.
func runBatches(ctx context.Context, opts TranslateOptions, items []TranslationItem, fn batchFunc) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	batchSize := opts.batchSize()
	var batches [][]TranslationItem
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}

	fn = withRetry(fn)

	if len(batches) == 1 {
		return fn(ctx, batches[0])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	concurrency := opts.concurrency()
	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case batchIdx, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					results, err := fn(ctx, batches[batchIdx])
					if err != nil {
						cancel()
					}
					resultChan <- batchResult{
						Index:   batchIdx,
						Results: results,
						Error:   err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var firstErr error
	var allResults []TranslationResult
	for result := range resultChan {
		if result.Error != nil {
			// siblings canceled by the failing batch report
			// context.Canceled; the batch that actually failed must win
			// regardless of delivery order
			canceled := errors.Is(result.Error, context.Canceled)
			if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !canceled) {
				firstErr = fmt.Errorf("batch %d failed: %w", result.Index, result.Error)
			}
			continue
		}
		allResults = append(allResults, result.Results...)
	}

	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Index < allResults[j].Index
	})

	return allResults, nil
}

// Translate fills in the given language for every caption using the
// provided translator. Indices in the batch protocol are positions in
// the caption list, so results map back unambiguously.
func Translate(ctx context.Context, tr Translator, items []Item, lang subtitles.Language) error {
	in := make([]TranslationItem, len(items))
	for i, it := range items {
		in[i] = TranslationItem{Index: i, Text: it.TextJA}
	}

	results, err := tr.Translate(ctx, in)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Index >= 0 && r.Index < len(items) {
			items[r.Index].SetText(lang, r.Text)
		}
	}
	return nil
}
