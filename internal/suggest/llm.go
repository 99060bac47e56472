package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"

	"inkplan/internal/callrecord"
	"inkplan/internal/prompts/convert"
	"inkplan/internal/prompts/episodes"
	"inkplan/internal/prompts/judge"
	"inkplan/internal/prompts/pages"
	"inkplan/internal/providers"
	"inkplan/internal/script"
)

// LLMServiceConfig configures the LLM-backed suggestion service.
type LLMServiceConfig struct {
	Client providers.LLMClient

	Model       string
	Temperature float64
	MaxTokens   int

	// Attempts is the total number of tries per call (default 2: one
	// attempt plus one retry).
	Attempts   int
	RetryDelay time.Duration

	// Recorder persists call audit records (optional).
	Recorder *callrecord.Recorder

	Logger *slog.Logger
}

// LLMService implements Service on any providers.LLMClient.
type LLMService struct {
	client      providers.LLMClient
	model       string
	temperature float64
	maxTokens   int
	attempts    uint
	retryDelay  time.Duration
	recorder    *callrecord.Recorder
	logger      *slog.Logger
}

// NewLLMService creates a suggestion service backed by the given client.
func NewLLMService(cfg LLMServiceConfig) (*LLMService, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("LLMService requires a client")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 2
	}
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}
	return &LLMService{
		client:      cfg.Client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		attempts:    uint(attempts),
		retryDelay:  retryDelay,
		recorder:    cfg.Recorder,
		logger:      logger.With("component", "suggest", "provider", cfg.Client.Name()),
	}, nil
}

// call runs one schema-validated chat call with retry, recording every
// attempt. The parsed document is validated against schema before being
// accepted; a malformed response counts as a failed attempt.
func (s *LLMService) call(ctx context.Context, system, user string, schema json.RawMessage, opts callrecord.RecordOptions, out any) error {
	return retry.Do(
		func() error {
			result, err := s.client.Chat(ctx, &providers.ChatRequest{
				Messages: []providers.Message{
					{Role: "system", Content: system},
					{Role: "user", Content: user},
				},
				Model:          s.model,
				Temperature:    s.temperature,
				MaxTokens:      s.maxTokens,
				ResponseFormat: &providers.ResponseFormat{Type: "json_schema", JSONSchema: schema},
			})
			if s.recorder != nil {
				s.recorder.Record(ctx, callrecord.FromChatResult(result, opts))
			}
			if err != nil {
				return err
			}
			if !result.Success || len(result.ParsedJSON) == 0 {
				return &providers.ServiceError{
					Provider: s.client.Name(),
					Op:       opts.PromptKey,
					Err:      fmt.Errorf("%s: %s", result.ErrorType, result.ErrorMessage),
				}
			}
			if err := providers.ValidateStructuredJSON(schema, result.ParsedJSON); err != nil {
				return &providers.ServiceError{Provider: s.client.Name(), Op: opts.PromptKey, Err: err}
			}
			return json.Unmarshal(result.ParsedJSON, out)
		},
		retry.Attempts(s.attempts),
		retry.Delay(s.retryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("suggestion call retrying", "prompt_key", opts.PromptKey, "attempt", n+1, "error", err)
		}),
	)
}

func (s *LLMService) SuggestEpisodes(ctx context.Context, req EpisodeRequest) (script.EpisodeBreakPlan, error) {
	panelsJSON, err := json.Marshal(req.Panels)
	if err != nil {
		return script.EpisodeBreakPlan{}, fmt.Errorf("failed to serialize panels: %w", err)
	}

	var resp struct {
		Episodes []struct {
			Number      int    `json:"number"`
			StartPanel  int    `json:"start_panel"`
			EndPanel    int    `json:"end_panel"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"episodes"`
	}
	err = s.call(ctx,
		episodes.SystemPrompt(),
		episodes.UserPrompt(episodes.UserPromptData{
			TotalPanels:  len(req.Panels),
			MinUnits:     req.MinUnits,
			MaxUnits:     req.MaxUnits,
			PriorContext: req.PriorContext,
			PanelsJSON:   string(panelsJSON),
		}),
		episodes.SchemaJSON(),
		callrecord.RecordOptions{JobID: req.JobID, PromptKey: episodes.UserPromptKey},
		&resp,
	)
	if err != nil {
		return script.EpisodeBreakPlan{}, err
	}

	plan := script.EpisodeBreakPlan{Episodes: make([]script.Episode, 0, len(resp.Episodes))}
	for _, e := range resp.Episodes {
		plan.Episodes = append(plan.Episodes, script.Episode{
			Number:      e.Number,
			StartPanel:  e.StartPanel,
			EndPanel:    e.EndPanel,
			Title:       e.Title,
			Description: e.Description,
		})
	}
	return plan, nil
}

func (s *LLMService) SuggestPages(ctx context.Context, req PageRequest) (script.PagePlan, error) {
	panelsJSON, err := json.Marshal(req.Panels)
	if err != nil {
		return script.PagePlan{}, fmt.Errorf("failed to serialize panels: %w", err)
	}

	var resp struct {
		Pages []struct {
			Page       int `json:"page"`
			StartPanel int `json:"start_panel"`
			EndPanel   int `json:"end_panel"`
		} `json:"pages"`
	}
	err = s.call(ctx,
		pages.SystemPrompt(),
		pages.UserPrompt(pages.UserPromptData{
			TotalPanels:      len(req.Panels),
			MaxPanelsPerPage: req.MaxPanelsPerPage,
			PanelsJSON:       string(panelsJSON),
		}),
		pages.SchemaJSON(),
		callrecord.RecordOptions{JobID: req.JobID, PromptKey: pages.UserPromptKey},
		&resp,
	)
	if err != nil {
		return script.PagePlan{}, err
	}

	total := len(req.Panels)
	ranges := make([]script.PageRange, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		ranges = append(ranges, script.PageRange{Page: p.Page, StartPanel: p.StartPanel, EndPanel: p.EndPanel})
	}
	return repairPageAssignment(ranges, total), nil
}

// repairPageAssignment turns possibly messy page ranges into a monotonic
// per-panel assignment: ranges are applied in page order, uncovered panels
// inherit the previous panel's page, and pages are renumbered sequentially
// by contiguous run.
func repairPageAssignment(ranges []script.PageRange, totalPanels int) script.PagePlan {
	if totalPanels <= 0 {
		return script.PagePlan{}
	}
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].Page < ranges[j].Page })

	pageOf := make([]int, totalPanels)
	for _, r := range ranges {
		for panel := r.StartPanel; panel <= r.EndPanel; panel++ {
			if panel >= 1 && panel <= totalPanels && pageOf[panel-1] == 0 {
				pageOf[panel-1] = r.Page
			}
		}
	}
	// Uncovered panels join the previous panel's page.
	for i := range pageOf {
		if pageOf[i] == 0 {
			if i == 0 {
				pageOf[i] = 1
			} else {
				pageOf[i] = pageOf[i-1]
			}
		}
	}
	// Renumber by contiguous run so the assignment is monotonic.
	next := 0
	lastRaw := 0
	for i, raw := range pageOf {
		if i == 0 || raw != lastRaw {
			next++
			lastRaw = raw
		}
		pageOf[i] = next
	}
	return script.PagePlan{PageOf: pageOf}
}

func (s *LLMService) ConvertChunk(ctx context.Context, req ConvertRequest) (*script.ChunkResult, error) {
	var resp struct {
		Panels []script.Panel `json:"panels"`
	}
	err := s.call(ctx,
		convert.SystemPrompt(),
		convert.UserPrompt(convert.UserPromptData{
			ChunkText:   req.ChunkText,
			PrevSummary: req.PrevSummary,
			NextSummary: req.NextSummary,
			Analysis:    req.Analysis,
		}),
		convert.SchemaJSON(),
		callrecord.RecordOptions{JobID: req.JobID, ChunkIndex: req.ChunkIndex, PromptKey: convert.UserPromptKey},
		&resp,
	)
	if err != nil {
		return nil, err
	}
	return &script.ChunkResult{
		ChunkIndex: req.ChunkIndex,
		Panels:     resp.Panels,
	}, nil
}

func (s *LLMService) Judge(ctx context.Context, req JudgeRequest) (*JudgeResult, error) {
	var resp JudgeResult
	err := s.call(ctx,
		judge.SystemPrompt(),
		judge.UserPrompt(judge.UserPromptData{
			RawText:       req.RawText,
			GeneratedJSON: req.GeneratedJSON,
		}),
		judge.SchemaJSON(),
		callrecord.RecordOptions{JobID: req.JobID, ChunkIndex: req.ChunkIndex, PromptKey: judge.UserPromptKey},
		&resp,
	)
	if err != nil {
		return nil, err
	}
	if resp.CoverageRatio < 0 || resp.CoverageRatio > 1 {
		return nil, &providers.ServiceError{
			Provider: s.client.Name(),
			Op:       judge.UserPromptKey,
			Err:      fmt.Errorf("coverage ratio %v out of range", resp.CoverageRatio),
		}
	}
	return &resp, nil
}

// Verify interface
var _ Service = (*LLMService)(nil)
