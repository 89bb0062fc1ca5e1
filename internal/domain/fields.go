package domain

import (
	"errors"
	"strconv"
	"strings"
)

// Fields holds the editable playground inputs exactly as typed. Newlines in the
// prompt and stop words are displayed as the two characters `\n`, and a literal
// backslash as `\\`.
type Fields struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	Temperature string `json:"temperature"`
	StopWords   string `json:"stop_words"`
	MaxTokens   string `json:"max_tokens"`
}

// Defaults are the values fields are reset to.
type Defaults struct {
	Model       string   `env:"SESSION_DEFAULT_MODEL"       envDefault:"gpt-3.5-turbo-instruct"`
	Temperature float64  `env:"SESSION_DEFAULT_TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int      `env:"SESSION_DEFAULT_MAX_TOKENS"  envDefault:"256"`
	StopWords   []string `env:"SESSION_DEFAULT_STOP_WORDS"  envSeparator:" "`
}

// NewFields renders a set of parameters into editable fields.
func NewFields(prompt, model string, temperature float64, stop []string, maxTokens int) Fields {
	return Fields{
		Model:       model,
		Prompt:      EscapeNewlines(prompt),
		Temperature: strconv.FormatFloat(temperature, 'f', -1, 64),
		StopWords:   EscapeNewlines(strings.Join(stop, " ")),
		MaxTokens:   strconv.Itoa(maxTokens),
	}
}

// DefaultFields returns a blank prompt with the default parameters.
func DefaultFields(d Defaults) Fields {
	return NewFields("", d.Model, d.Temperature, d.StopWords, d.MaxTokens)
}

// FieldsFromRecord repopulates fields from a record's prompt and stored request parameters.
func FieldsFromRecord(r Record) Fields {
	req := r.RawRequest
	return NewFields(r.Prompt, req.Model, req.Temperature, req.Stop, req.MaxTokens)
}

// BuildRequest validates the fields and converts them into a CompletionRequest.
func (f Fields) BuildRequest() (*CompletionRequest, error) {
	model := strings.TrimSpace(f.Model)
	if model == "" {
		return nil, &ValidationError{Field: "model", Value: f.Model, Err: errors.New("model cannot be empty")}
	}

	temperature, err := strconv.ParseFloat(strings.TrimSpace(f.Temperature), 64)
	if err != nil {
		return nil, &ValidationError{Field: "temperature", Value: f.Temperature, Err: errors.New("not a number")}
	}

	maxTokens, err := strconv.Atoi(strings.TrimSpace(f.MaxTokens))
	if err != nil {
		return nil, &ValidationError{Field: "max tokens", Value: f.MaxTokens, Err: errors.New("not an integer")}
	}
	if maxTokens <= 0 {
		return nil, &ValidationError{Field: "max tokens", Value: f.MaxTokens, Err: errors.New("must be positive")}
	}

	return &CompletionRequest{
		Model:       model,
		Prompt:      UnescapeNewlines(f.Prompt),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stop:        f.stopList(),
	}, nil
}

// stopList splits the stop words on spaces, discarding empty tokens. It is nil
// when no words remain.
func (f Fields) stopList() []string {
	var stop []string
	for _, word := range strings.Split(UnescapeNewlines(f.StopWords), " ") {
		if word != "" {
			stop = append(stop, word)
		}
	}
	return stop
}

var (
	newlineEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	newlineUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n")
)

// EscapeNewlines replaces real newlines with the literal marker `\n`. A
// backslash is doubled so that UnescapeNewlines restores s exactly.
func EscapeNewlines(s string) string {
	return newlineEscaper.Replace(s)
}

// UnescapeNewlines turns the marker `\n` into a real newline and `\\` into a
// single backslash. Any other backslash is kept as typed.
func UnescapeNewlines(s string) string {
	return newlineUnescaper.Replace(s)
}
