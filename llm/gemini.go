package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"clausecheck-backend/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

const (
	DefaultModel   = "gemini-1.5-flash"
	maxRetries     = 3
	initialBackoff = time.Second
	maxPromptChars = 30000

	systemInstruction = "You are a contract analysis assistant specialised in regulatory compliance. " +
		"Always answer with valid JSON in the requested format. Do not include any additional text or explanations."
)

// GeminiService implements Service on top of the Gemini API
type GeminiService struct {
	client         *genai.Client
	model          string
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
}

// GeminiOption is a functional option for GeminiService
type GeminiOption func(*GeminiService)

// GeminiWithModel sets the model name
func GeminiWithModel(model string) GeminiOption {
	return func(s *GeminiService) {
		if model != "" {
			s.model = model
		}
	}
}

// GeminiWithRateLimit limits outgoing calls to rps requests per second
func GeminiWithRateLimit(rps float64, burst int) GeminiOption {
	return func(s *GeminiService) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// GeminiWithRetry overrides the retry policy
func GeminiWithRetry(attempts int, backoff time.Duration) GeminiOption {
	return func(s *GeminiService) {
		if attempts > 0 {
			s.maxRetries = attempts
		}
		s.initialBackoff = backoff
	}
}

// NewGeminiService creates a Gemini-backed Service
func NewGeminiService(client *genai.Client, opts ...GeminiOption) *GeminiService {
	s := &GeminiService{
		client:         client,
		model:          DefaultModel,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate implements Service
func (s *GeminiService) Generate(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt()
	if len(prompt) > maxPromptChars && req.Task == TaskSegment {
		// segmentation input is never cut
		return "", models.NewError(models.KindServiceUnavailable,
			"segmentation prompt of %d bytes exceeds the %d byte limit", len(prompt), maxPromptChars)
	}
	if s.client == nil {
		return "", models.NewError(models.KindServiceUnavailable, "gemini client not set")
	}
	if len(prompt) > maxPromptChars {
		log.Printf("Warning: %s prompt too long (%d chars), truncating to %d chars", req.Task, len(prompt), maxPromptChars)
		prompt = strings.ToValidUTF8(prompt[:maxPromptChars], "")
	}

	model := s.client.GenerativeModel(s.model)
	model.SetTemperature(0)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))
	if req.SchemaHint != "" {
		model.ResponseMIMEType = "application/json"
	}

	var lastErr error
	backoff := s.initialBackoff
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", classifyError(ctx, ctx.Err())
			}
			backoff *= 2
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return "", classifyError(ctx, err)
			}
		}

		text, err := s.generateOnce(ctx, model, prompt)
		if err == nil {
			return text, nil
		}

		lastErr = classifyError(ctx, err)
		if !retryable(ctx, err) {
			return "", lastErr
		}
		log.Printf("Warning: %s call failed (attempt %d/%d): %v", req.Task, attempt+1, s.maxRetries, err)
	}

	return "", fmt.Errorf("failed to generate content after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *GeminiService) generateOnce(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("API blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("API returned no candidates")
	}

	var out strings.Builder
	for i, candidate := range resp.Candidates {
		if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
			log.Printf("Warning: Candidate %d finished with reason: %s", i, candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
	}

	if out.Len() == 0 {
		return "", errors.New("API returned empty content")
	}
	return out.String(), nil
}

// classifyError maps a client error onto the service failure kinds
func classifyError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.WrapError(models.KindServiceTimeout, err, "text-understanding service timed out")
	}
	if code := statusCode(err); code == http.StatusGatewayTimeout || code == http.StatusRequestTimeout {
		return models.WrapError(models.KindServiceTimeout, err, "text-understanding service timed out")
	}
	return models.WrapError(models.KindServiceUnavailable, err, "text-understanding service unavailable")
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch code := statusCode(err); {
	case code == 0:
		// transport errors and empty responses
		return true
	case code == http.StatusTooManyRequests, code >= 500:
		return true
	default:
		return false
	}
}

// statusCode extracts an HTTP-equivalent status from API errors, 0 when unknown
func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return code
		}
		if st := apiErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.ResourceExhausted:
				return http.StatusTooManyRequests
			case codes.Unavailable:
				return http.StatusServiceUnavailable
			case codes.Internal:
				return http.StatusInternalServerError
			case codes.DeadlineExceeded:
				return http.StatusGatewayTimeout
			case codes.InvalidArgument:
				return http.StatusBadRequest
			case codes.PermissionDenied:
				return http.StatusForbidden
			case codes.Unauthenticated:
				return http.StatusUnauthorized
			case codes.NotFound:
				return http.StatusNotFound
			}
		}
	}
	return 0
}
