package model

import (
	"fmt"
	"net/url"
	"strconv"
)

type SettingKey string

const (
	SettingKeyProxyURL               SettingKey = "proxy_url"
	SettingKeyCORSAllowOrigins       SettingKey = "cors_allow_origins"       // comma separated origins, "" = none, "*" = all
	SettingKeyCredentialTestInterval SettingKey = "credential_test_interval" // hours between health sweeps, 0 = disabled
	SettingKeyCredentialSaveInterval SettingKey = "credential_save_interval" // minutes between use-counter flushes
)

type Setting struct {
	Key   SettingKey `json:"key" gorm:"primaryKey"`
	Value string     `json:"value" gorm:"not null"`
}

func DefaultSettings() []Setting {
	return []Setting{
		{Key: SettingKeyProxyURL, Value: ""},
		{Key: SettingKeyCORSAllowOrigins, Value: ""},
		{Key: SettingKeyCredentialTestInterval, Value: "0"},
		{Key: SettingKeyCredentialSaveInterval, Value: "10"},
	}
}

func (s *Setting) Validate() error {
	switch s.Key {
	case SettingKeyCredentialTestInterval, SettingKeyCredentialSaveInterval:
		if _, err := strconv.Atoi(s.Value); err != nil {
			return fmt.Errorf("%s must be an integer", s.Key)
		}
		return nil
	case SettingKeyProxyURL:
		if s.Value == "" {
			return nil
		}
		parsedURL, err := url.Parse(s.Value)
		if err != nil {
			return fmt.Errorf("proxy URL is invalid: %w", err)
		}
		validSchemes := map[string]bool{
			"http":   true,
			"https":  true,
			"socks":  true,
			"socks5": true,
		}
		if !validSchemes[parsedURL.Scheme] {
			return fmt.Errorf("proxy URL scheme must be http, https or socks")
		}
		if parsedURL.Host == "" {
			return fmt.Errorf("proxy URL must have a host")
		}
		return nil
	}
	return nil
}
