package openai

// Config contains settings for the OpenAI text completions client.
//
// An empty APIKey is accepted so the playground can start offline; requests
// then fail with domain.ErrMissingCredential. Timeout is in seconds and bounds
// each HTTP attempt; MaxRetries counts retries after the first attempt.
type Config struct {
	APIKey       string `env:"OPENAI_API_KEY"`
	Organization string `env:"OPENAI_ORG_ID"`
	Project      string `env:"OPENAI_PROJECT_ID"`
	BaseURL      string `env:"OPENAI_BASE_URL"    envDefault:"https://api.openai.com/v1"`
	Timeout      int    `env:"OPENAI_TIMEOUT"     envDefault:"60"`
	MaxRetries   int    `env:"OPENAI_MAX_RETRIES" envDefault:"2"`
}
