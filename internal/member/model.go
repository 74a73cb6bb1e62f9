package member

// Record represents a confirmed, role-granted user. Only the one-way hash of
// the proven address is kept; the plaintext is discarded the moment the
// record is created. The JSON field names are the on-disk snapshot format.
type Record struct {
	Name      string `json:"name"`
	EmailHash string `json:"email"`
}
