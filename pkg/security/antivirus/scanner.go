package antivirus

import (
	"context"
)

// ScanResult contains the result of a malware scan
type ScanResult struct {
	Infected    bool   // True if malware was detected
	ThreatName  string // Name of detected threat (empty if clean)
	ScannerName string // Name of scanner that produced this result
	Error       error  // Scanner failure; Infected is not meaningful when set
}

// Clean reports a completed scan that found nothing.
func (r ScanResult) Clean() bool {
	return r.Error == nil && !r.Infected
}

// Scanner is the interface for pluggable antivirus implementations.
// Attachments are rejected on detection; there is no quarantine.
type Scanner interface {
	// Scan checks in-memory attachment content. It honours ctx's deadline.
	Scan(ctx context.Context, filename string, data []byte) ScanResult

	// Name returns the scanner implementation name (for logging)
	Name() string
}

// NoOpScanner reports every file clean. Used when CLAMAV_ADDRESS is unset.
type NoOpScanner struct{}

var _ Scanner = (*NoOpScanner)(nil) // Compile-time interface check

func (n *NoOpScanner) Scan(ctx context.Context, filename string, data []byte) ScanResult {
	return ScanResult{ScannerName: n.Name()}
}

func (n *NoOpScanner) Name() string {
	return "noop"
}

func NewNoOpScanner() *NoOpScanner {
	return &NoOpScanner{}
}

// New returns a ClamAV scanner for address, or a NoOpScanner when address is empty.
func New(address string) Scanner {
	if address == "" {
		return NewNoOpScanner()
	}
	return NewClamAVScanner(address, 0)
}
