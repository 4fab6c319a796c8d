package sql

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a parameter value.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	ParamName   string // Name of the parameter that failed the check
	ParamValue  any    // The value that was checked
}

// CheckParameterForInjection uses libinjection to detect SQL injection patterns
// in a parameter value. Only string values are checked.
//
// Example:
//
//	result := CheckParameterForInjection("entity", "juan perez")
//	// result == nil
//
//	result = CheckParameterForInjection("entity", "x' OR '1'='1")
//	// result.IsSQLi == true
func CheckParameterForInjection(paramName string, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		ParamName:   paramName,
		ParamValue:  value,
	}
}

// ScreenParameters checks every named value and returns a *SecurityViolationError
// for the first (by name) that looks like an injection attempt.
func ScreenParameters(values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if res := CheckParameterForInjection(name, values[name]); res != nil {
			return &SecurityViolationError{
				Reason:      "parameter " + res.ParamName + " matches injection fingerprint " + res.Fingerprint,
				Param:       res.ParamName,
				Fingerprint: res.Fingerprint,
			}
		}
	}
	return nil
}
