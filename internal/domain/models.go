package domain

import "fmt"

// Rating is the evaluation a user gives a completion.
type Rating string

const (
	RatingNegative Rating = "negative"
	RatingNeutral  Rating = "neutral"
	RatingPositive Rating = "positive"
)

// ParseRating converts user input into a Rating.
func ParseRating(s string) (Rating, error) {
	switch r := Rating(s); r {
	case RatingNegative, RatingNeutral, RatingPositive:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rating %q", s)
	}
}

// Record is a persisted prompt completion with optional evaluation.
// Rating and Star are nil when no value was ever recorded.
type Record struct {
	ID          string         `json:"id"`
	Prompt      string         `json:"prompt"`
	Completion  string         `json:"completion"`
	Rating      *Rating        `json:"rating"`
	Star        *bool          `json:"star"`
	RawRequest  RawRequest     `json:"rawRequest"`
	RawResponse map[string]any `json:"rawResponse"`
}

// Starred reports whether the record carries a set star flag.
func (r Record) Starred() bool {
	return r.Star != nil && *r.Star
}

// Clone returns a copy of the record that shares no pointers, slices or maps
// with r.
func (r Record) Clone() Record {
	c := r
	if r.Rating != nil {
		rating := *r.Rating
		c.Rating = &rating
	}
	if r.Star != nil {
		star := *r.Star
		c.Star = &star
	}
	if r.RawRequest.Stop != nil {
		c.RawRequest.Stop = append(StopWords{}, r.RawRequest.Stop...)
	}
	if r.RawResponse != nil {
		c.RawResponse = cloneValue(r.RawResponse).(map[string]any)
	}
	return c
}

// cloneValue deep copies decoded JSON or YAML data.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(v))
		for key, value := range v {
			c[key] = cloneValue(value)
		}
		return c
	case []any:
		c := make([]any, len(v))
		for i, value := range v {
			c[i] = cloneValue(value)
		}
		return c
	default:
		return v
	}
}

// RawRequest is the exact parameter set sent to the completion service.
type RawRequest struct {
	Model            string    `yaml:"model"             json:"model"`
	Prompt           string    `yaml:"prompt"            json:"prompt"`
	Temperature      float64   `yaml:"temperature"       json:"temperature"`
	MaxTokens        int       `yaml:"max_tokens"        json:"max_tokens"`
	Stop             StopWords `yaml:"stop"              json:"stop"`
	TopP             float64   `yaml:"top_p"             json:"top_p"`
	FrequencyPenalty float64   `yaml:"frequency_penalty" json:"frequency_penalty"`
	PresencePenalty  float64   `yaml:"presence_penalty"  json:"presence_penalty"`
}

// StopWords is an ordered list of stop sequences. A nil list is written as an
// explicit null rather than an empty sequence.
type StopWords []string

// MarshalYAML implements yaml.Marshaler.
func (s StopWords) MarshalYAML() (interface{}, error) {
	if s == nil {
		return nil, nil
	}
	return []string(s), nil
}

// Sampling parameters that are never exposed to the user.
const (
	FixedTopP             = 1.0
	FixedFrequencyPenalty = 0.0
	FixedPresencePenalty  = 0.0
)

// CompletionRequest is a request for a single text completion.
// A nil Stop means no stop sequences.
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop,omitempty"`
}

// ToRawRequest expands the request into the full parameter set, fixing the
// sampling parameters the user cannot change.
func (r *CompletionRequest) ToRawRequest() RawRequest {
	return RawRequest{
		Model:            r.Model,
		Prompt:           r.Prompt,
		Temperature:      r.Temperature,
		MaxTokens:        r.MaxTokens,
		Stop:             r.Stop,
		TopP:             FixedTopP,
		FrequencyPenalty: FixedFrequencyPenalty,
		PresencePenalty:  FixedPresencePenalty,
	}
}

// CompletionResult is the outcome of a successful completion call. It is
// ephemeral until a Session saves it as a Record.
type CompletionResult struct {
	ID          string         `json:"id"`
	Completion  string         `json:"completion"`
	RawRequest  RawRequest     `json:"rawRequest"`
	RawResponse map[string]any `json:"rawResponse"`
}
