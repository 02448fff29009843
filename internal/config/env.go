package config

import (
	"strconv"
	"strings"
)

type lookupFunc func(string) (string, bool)

// applyEnv overlays secrets and deploy-time settings from the environment.
func (c *Config) applyEnv(lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("OPENROUTER_API_KEY", &c.LLM.APIKey)
	str("OPENROUTER_MODEL", &c.LLM.Model)
	str("OPENROUTER_BASE_URL", &c.LLM.BaseURL)
	if v, ok := lookup("OPENROUTER_ALLOWED_HOSTS"); ok && strings.TrimSpace(v) != "" {
		c.LLM.AllowedHosts = splitCSV(v)
	}
	str("OPENAI_API_KEY", &c.Transcript.OpenAIAPIKey)
	str("YOUTUBE_ACCESS_TOKEN", &c.Publish.YouTubeAccessToken)
	str("CLIPFEED_RUNLOG_DSN", &c.RunLog.DSN)
	str("NTFY_TOPIC", &c.Notify.NtfyTopic)
	if v, ok := lookup("PORT"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && port > 0 {
			c.Server.Bind = ":" + strconv.Itoa(port)
		}
	}
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
