package types

// redactedPlaceholder replaces secret values in logs and serialization.
const redactedPlaceholder = "***REDACTED***"

// SecretString is a string type that prevents accidental logging or
// serialization of sensitive values (database DSNs, credentials). It
// overrides String() and MarshalJSON() so secrets never leak through fmt
// functions, structured log fields, or JSON config dumps.
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactedPlaceholder + `"`), nil
}

// Unmask returns the raw plaintext value. Limit usage to the points where
// the real value is required (connection strings, request headers).
func (s SecretString) Unmask() string {
	return string(s)
}
