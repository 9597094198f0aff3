package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"wordrooms/internal/model"
	"wordrooms/internal/repository"
)

// WordService picks target words and checks guesses against a dictionary
type WordService interface {
	PickWord(ctx context.Context, q model.WordQuery) (*model.Word, error)
	IsValidWord(ctx context.Context, language, word string) (bool, error)
	RecordUsage(ctx context.Context, language, word string, solved bool) error
}

// ErrNoWords is returned when no word matches a query
var ErrNoWords = errors.New("no word matches query")

// BankWordService serves words from the local word bank
type BankWordService struct {
	words repository.WordRepo
}

func NewBankWordService(words repository.WordRepo) *BankWordService {
	return &BankWordService{words: words}
}

func (s *BankWordService) PickWord(ctx context.Context, q model.WordQuery) (*model.Word, error) {
	w, err := s.words.Random(ctx, q)
	if errors.Is(err, repository.ErrNotFound) && q.Difficulty != "" {
		// fall back to any difficulty before giving up
		q.Difficulty = ""
		w, err = s.words.Random(ctx, q)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoWords
	}
	return w, err
}

func (s *BankWordService) IsValidWord(ctx context.Context, language, word string) (bool, error) {
	return s.words.Exists(ctx, language, word)
}

func (s *BankWordService) RecordUsage(ctx context.Context, language, word string, solved bool) error {
	return s.words.RecordUsage(ctx, language, word, solved)
}

// HTTPWordService talks to a remote word API
type HTTPWordService struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

func NewHTTPWordService(baseURL string) *HTTPWordService {
	return &HTTPWordService{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		maxRetries: 3,
		backoff:    200 * time.Millisecond,
	}
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

type usageRequest struct {
	Language string `json:"language"`
	Word     string `json:"word"`
	Solved   bool   `json:"solved"`
}

func (c *HTTPWordService) PickWord(ctx context.Context, q model.WordQuery) (*model.Word, error) {
	params := url.Values{}
	params.Set("language", q.Language)
	params.Set("length", strconv.Itoa(q.Length))
	if q.Difficulty != "" {
		params.Set("difficulty", q.Difficulty)
	}

	body, status, err := c.doRequest(ctx, http.MethodGet, "/words/random?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNoWords
	}

	var w model.Word
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("failed to parse word response: %w", err)
	}
	w.Word = strings.ToUpper(w.Word)
	if w.Language == "" {
		w.Language = q.Language
	}
	w.Length = len([]rune(w.Word))
	if w.Length != q.Length {
		return nil, fmt.Errorf("word service returned %d letters, want %d", w.Length, q.Length)
	}
	return &w, nil
}

func (c *HTTPWordService) IsValidWord(ctx context.Context, language, word string) (bool, error) {
	params := url.Values{}
	params.Set("language", language)
	params.Set("word", word)

	body, status, err := c.doRequest(ctx, http.MethodGet, "/words/validate?"+params.Encode(), nil)
	if err != nil {
		return false, err
	}
	if status == http.StatusNotFound {
		return false, nil
	}

	var res validateResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return false, fmt.Errorf("failed to parse validate response: %w", err)
	}
	return res.Valid, nil
}

func (c *HTTPWordService) RecordUsage(ctx context.Context, language, word string, solved bool) error {
	payload, err := json.Marshal(usageRequest{Language: language, Word: word, Solved: solved})
	if err != nil {
		return err
	}
	_, _, err = c.doRequest(ctx, http.MethodPost, "/words/usage", payload)
	return err
}

// doRequest retries transport errors, 429 and 5xx with exponential backoff.
// A 404 is returned to the caller as a status, other 4xx as an error.
func (c *HTTPWordService) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff
			log.Debug().Str("path", path).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying word service request")
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(wait):
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("word service returned %d", resp.StatusCode)
			continue
		case resp.StatusCode == http.StatusNotFound:
			return respBody, resp.StatusCode, nil
		case resp.StatusCode >= 400:
			return nil, resp.StatusCode, fmt.Errorf("word service error %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, resp.StatusCode, nil
	}

	log.Warn().Err(lastErr).Str("method", method).Str("path", path).Msg("word service retries exhausted")
	return nil, 0, fmt.Errorf("max retries exceeded: %w", lastErr)
}
