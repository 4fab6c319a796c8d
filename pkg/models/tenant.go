package models

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
)

// TenantContext identifies the data partition a request is scoped to.
// It is supplied per request and never cached.
type TenantContext struct {
	TenantID string `json:"tenant_id"`
}

// NewTenantContext trims the id and returns a TenantContext.
func NewTenantContext(tenantID string) TenantContext {
	return TenantContext{TenantID: strings.TrimSpace(tenantID)}
}

// Validate returns apperrors.ErrInvalidInput when the tenant id is empty.
func (t TenantContext) Validate() error {
	if t.TenantID == "" {
		return fmt.Errorf("%w: tenantId is required", apperrors.ErrInvalidInput)
	}
	return nil
}
