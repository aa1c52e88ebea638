package config

import "strings"

func trimSpace(value string) string {
	return strings.TrimSpace(value)
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(trimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(trimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	c.Paths.APIBind = trimSpace(c.Paths.APIBind)
	c.Paths.APIToken = trimSpace(c.Paths.APIToken)
	c.Client.BaseURL = strings.TrimRight(trimSpace(c.Client.BaseURL), "/")
	c.OpenAI.APIKey = trimSpace(c.OpenAI.APIKey)
	c.OpenAI.BaseURL = strings.TrimRight(trimSpace(c.OpenAI.BaseURL), "/")
	c.OpenAI.TranscriptionModel = trimSpace(c.OpenAI.TranscriptionModel)
	c.OpenAI.StructuringModel = trimSpace(c.OpenAI.StructuringModel)
	c.Capture.InputDevice = trimSpace(c.Capture.InputDevice)
	c.Storage.Backend = strings.ToLower(trimSpace(c.Storage.Backend))
	c.Logging.Format = strings.ToLower(trimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(trimSpace(c.Logging.Level))

	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if c.Client.TimeoutSeconds <= 0 {
		c.Client.TimeoutSeconds = defaultClientTimeoutSeconds
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeoutSeconds
	}
	if c.Capture.MaxRecordingSeconds <= 0 {
		c.Capture.MaxRecordingSeconds = defaultMaxRecordingSeconds
	}
	if c.Capture.ProcessingTimeoutSeconds <= 0 {
		c.Capture.ProcessingTimeoutSeconds = defaultProcessingTimeoutSeconds
	}
	return nil
}
