package oauth

import (
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid",
			config: Config{
				ClientID:    "123456789012345678",
				RedirectURL: "https://guildview.example/",
			},
			wantErr: false,
		},
		{
			name:    "missing client ID",
			config:  Config{RedirectURL: "https://guildview.example/"},
			wantErr: true,
		},
		{
			name:    "missing redirect URL",
			config:  Config{ClientID: "123456789012345678"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var flowErr *FlowError
				if !errors.As(err, &flowErr) || flowErr.Code != ErrorCodeInvalidConfig {
					t.Errorf("validate() error = %v, want invalid_config FlowError", err)
				}
			}
		})
	}
}

func TestNewSession_NilConfig(t *testing.T) {
	if _, err := NewSession(nil); err == nil {
		t.Error("NewSession(nil) should return error")
	}
}

func TestNewSession_Defaults(t *testing.T) {
	session, err := NewSession(&Config{
		ClientID:    "123456789012345678",
		RedirectURL: "https://guildview.example/",
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if session.State() != StateLoggedOut {
		t.Errorf("State() = %v, want %v", session.State(), StateLoggedOut)
	}
	if session.Provider() == nil {
		t.Error("Provider() = nil, want default provider")
	}
}
