package services

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "math/rand"
  "net"
  "net/http"
  "os"
  "strconv"
  "strings"
  "time"

  "github.com/medremind/medremind-backend/internal/logger"
)

// AIProvider is one OpenAI-compatible chat completion backend. Gemini and
// Groq both expose this dialect, so a single client covers the whole cascade.
type AIProvider interface {
  Name() string
  GenerateJSON(ctx context.Context, system string, user string) (map[string]any, error)
}

type aiProvider struct {
  log        *logger.Logger
  name       string
  baseURL    string
  apiKey     string
  model      string
  httpClient *http.Client

  maxRetries int
}

type providerConfig struct {
  name           string
  keyEnv         string
  baseURLEnv     string
  defaultBaseURL string
  modelEnv       string
  defaultModel   string
}

var providerConfigs = []providerConfig{
  {
    name:           "openai",
    keyEnv:         "OPENAI_API_KEY",
    baseURLEnv:     "OPENAI_BASE_URL",
    defaultBaseURL: "https://api.openai.com/v1",
    modelEnv:       "OPENAI_MODEL",
    defaultModel:   "gpt-4o-mini",
  },
  {
    name:           "gemini",
    keyEnv:         "GEMINI_API_KEY",
    baseURLEnv:     "GEMINI_BASE_URL",
    defaultBaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
    modelEnv:       "GEMINI_MODEL",
    defaultModel:   "gemini-2.0-flash",
  },
  {
    name:           "groq",
    keyEnv:         "GROQ_API_KEY",
    baseURLEnv:     "GROQ_BASE_URL",
    defaultBaseURL: "https://api.groq.com/openai/v1",
    modelEnv:       "GROQ_MODEL",
    defaultModel:   "llama-3.3-70b-versatile",
  },
}

// NewAIProviders builds a client for every provider that has an API key
// configured, in cascade order. An empty result is fine; extraction then
// runs rule-based only.
func NewAIProviders(log *logger.Logger) []AIProvider {
  timeoutSec := 60
  if v := os.Getenv("AI_TIMEOUT_SECONDS"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }
  maxRetries := 2
  if v := os.Getenv("AI_MAX_RETRIES"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
      maxRetries = parsed
    }
  }

  var out []AIProvider
  for _, cfg := range providerConfigs {
    apiKey := strings.TrimSpace(os.Getenv(cfg.keyEnv))
    if apiKey == "" {
      continue
    }
    baseURL := strings.TrimSpace(os.Getenv(cfg.baseURLEnv))
    if baseURL == "" {
      baseURL = cfg.defaultBaseURL
    }
    model := strings.TrimSpace(os.Getenv(cfg.modelEnv))
    if model == "" {
      model = cfg.defaultModel
    }
    out = append(out, &aiProvider{
      log:        log.With("service", "AIProvider", "provider", cfg.name),
      name:       cfg.name,
      baseURL:    strings.TrimRight(baseURL, "/"),
      apiKey:     apiKey,
      model:      model,
      httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
      maxRetries: maxRetries,
    })
  }
  return out
}

func (c *aiProvider) Name() string { return c.name }

type aiHTTPError struct {
  StatusCode int
  Body       string
}

func (e *aiHTTPError) Error() string {
  return fmt.Sprintf("ai provider http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
  if code == 408 || code == 429 {
    return true
  }
  if code >= 500 && code <= 599 {
    return true
  }
  return false
}

func isRetryableErr(err error) bool {
  if err == nil {
    return false
  }
  if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
    // if caller canceled, don't retry; if it's our timeout, we will retry anyway.
    // We can only distinguish reliably by checking ctx, which we do in call loop.
    return true
  }
  var netErr net.Error
  if errors.As(err, &netErr) {
    if netErr.Timeout() {
      return true
    }
  }
  var httpErr *aiHTTPError
  if errors.As(err, &httpErr) {
    return isRetryableHTTP(httpErr.StatusCode)
  }
  return false
}

func jitterSleep(base time.Duration) time.Duration {
  // +/- 20%
  if base <= 0 {
    return 0
  }
  j := 0.2
  delta := base.Seconds() * j
  low := base.Seconds() - delta
  high := base.Seconds() + delta
  if low < 0 {
    low = 0
  }
  v := low + rand.Float64()*(high-low)
  return time.Duration(v * float64(time.Second))
}

func (c *aiProvider) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
  var buf bytes.Buffer
  if body != nil {
    if err := json.NewEncoder(&buf).Encode(body); err != nil {
      return nil, nil, err
    }
  }

  req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
  if err != nil {
    return nil, nil, err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiKey)
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, nil, err
  }

  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return resp, nil, readErr
  }

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return resp, raw, &aiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
  }
  return resp, raw, nil
}

func (c *aiProvider) do(ctx context.Context, method, path string, body any, out any) error {
  // exponential backoff: 1s, 2s, 4s (cap ~10s)
  backoff := 1 * time.Second

  for attempt := 0; attempt <= c.maxRetries; attempt++ {
    if ctx.Err() != nil {
      return ctx.Err()
    }

    resp, raw, err := c.doOnce(ctx, method, path, body)
    if err == nil {
      if out == nil {
        return nil
      }
      if uErr := json.Unmarshal(raw, out); uErr != nil {
        return fmt.Errorf("ai provider decode error: %w", uErr)
      }
      return nil
    }

    // If non-retryable: fail immediately
    if !isRetryableErr(err) {
      return err
    }

    // If we've exhausted retries: return last error
    if attempt == c.maxRetries {
      return err
    }

    // Respect Retry-After when present
    sleepFor := backoff
    if resp != nil {
      ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
      if ra != "" {
        if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
          sleepFor = time.Duration(secs) * time.Second
        }
      }
    }

    // Cap + jitter
    if sleepFor > 10*time.Second {
      sleepFor = 10 * time.Second
    }
    sleepFor = jitterSleep(sleepFor)

    c.log.Warn("AI provider request retrying",
      "path", path,
      "attempt", attempt+1,
      "max_retries", c.maxRetries,
      "sleep", sleepFor.String(),
      "error", err.Error(),
    )

    time.Sleep(sleepFor)
    backoff *= 2
  }

  return fmt.Errorf("unreachable retry loop")
}

// ---- Chat completion with JSON output ----

type chatRequest struct {
  Model    string `json:"model"`
  Messages []struct {
    Role    string `json:"role"`
    Content string `json:"content"`
  } `json:"messages"`
  ResponseFormat struct {
    Type string `json:"type"`
  } `json:"response_format"`
  Temperature float64 `json:"temperature"`
}

type chatResponse struct {
  Choices []struct {
    Message struct {
      Content string `json:"content"`
      Refusal string `json:"refusal,omitempty"`
    } `json:"message"`
    FinishReason string `json:"finish_reason"`
  } `json:"choices"`
}

func (c *aiProvider) GenerateJSON(ctx context.Context, system string, user string) (map[string]any, error) {
  req := chatRequest{
    Model: c.model,
    Messages: []struct {
      Role    string `json:"role"`
      Content string `json:"content"`
    }{
      {Role: "system", Content: system},
      {Role: "user", Content: user},
    },
    Temperature: 0.1,
  }
  req.ResponseFormat.Type = "json_object"

  var resp chatResponse
  if err := c.do(ctx, "POST", "/chat/completions", req, &resp); err != nil {
    return nil, err
  }
  if len(resp.Choices) == 0 {
    return nil, fmt.Errorf("empty choices from %s", c.name)
  }
  msg := resp.Choices[0].Message
  if msg.Refusal != "" {
    return nil, fmt.Errorf("model refused: %s", msg.Refusal)
  }
  jsonText := strings.TrimSpace(msg.Content)
  // Some models wrap JSON in markdown fences despite json_object mode.
  jsonText = strings.TrimPrefix(jsonText, "```json")
  jsonText = strings.TrimPrefix(jsonText, "```")
  jsonText = strings.TrimSuffix(jsonText, "```")

  var out map[string]any
  if err := json.Unmarshal([]byte(strings.TrimSpace(jsonText)), &out); err != nil {
    return nil, fmt.Errorf("bad JSON from %s: %w", c.name, err)
  }
  return out, nil
}
