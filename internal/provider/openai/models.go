package openai

// SupportedModels returns the text completion models known to the OpenAI provider.
func SupportedModels() []string {
	return []string{
		"gpt-3.5-turbo-instruct",
		"davinci-002",
		"babbage-002",
	}
}
