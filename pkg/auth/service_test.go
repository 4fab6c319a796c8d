package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type mockJWKSClient struct {
	claims *Claims
	err    error
	got    string
}

func (m *mockJWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	m.got = tokenString
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func (m *mockJWKSClient) Close() {}

func TestAuthService_ValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		clientErr error
		wantErr   error
		wantToken string
	}{
		{name: "bearer token", header: "Bearer abc.def.ghi", wantToken: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc.def.ghi", wantToken: "abc.def.ghi"},
		{name: "missing header", header: "", wantErr: ErrMissingAuthorization},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrInvalidAuthFormat},
		{name: "no token", header: "Bearer ", wantErr: ErrInvalidAuthFormat},
		{name: "invalid token", header: "Bearer bad", clientErr: errors.New("token validation failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockJWKSClient{claims: &Claims{TenantID: "acme"}, err: tt.clientErr}
			svc := NewAuthService(client, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			claims, token, err := svc.ValidateRequest(req)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.clientErr != nil:
				if err == nil {
					t.Fatal("expected validation error")
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if token != tt.wantToken || client.got != tt.wantToken {
					t.Errorf("expected token %q, got %q", tt.wantToken, token)
				}
				if claims.TenantID != "acme" {
					t.Errorf("unexpected claims: %+v", claims)
				}
			}
		})
	}
}

func TestAuthService_RequireTenantID(t *testing.T) {
	svc := NewAuthService(&mockJWKSClient{}, nil)

	if err := svc.RequireTenantID(&Claims{TenantID: "acme"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := svc.RequireTenantID(&Claims{}); !errors.Is(err, ErrMissingTenantID) {
		t.Errorf("expected ErrMissingTenantID, got %v", err)
	}
	if err := svc.RequireTenantID(nil); !errors.Is(err, ErrMissingTenantID) {
		t.Errorf("expected ErrMissingTenantID for nil claims, got %v", err)
	}
}
