// Package secretscan stops credentials pasted into a tip from being
// committed to a public repository.
package secretscan

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

var ErrSecretDetected = errors.New("secretscan: content contains a secret")

// Finding is one secret match, without the secret itself.
type Finding struct {
	RuleID      string
	Description string
	Line        int
}

// Scanner runs the default gitleaks rule set over submitted text.
type Scanner struct {
	mu       sync.Mutex
	detector *detect.Detector
}

func New() (*Scanner, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gitleaks rules: %w", err)
	}
	return &Scanner{detector: detector}, nil
}

// Scan returns the findings in content, ordered by line.
func (s *Scanner) Scan(content string) []Finding {
	s.mu.Lock()
	raw := s.detector.DetectString(content)
	s.mu.Unlock()

	findings := make([]Finding, 0, len(raw))
	for _, f := range raw {
		findings = append(findings, Finding{RuleID: f.RuleID, Description: f.Description, Line: f.StartLine})
	}
	sort.SliceStable(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })
	return findings
}

// Check wraps ErrSecretDetected with the matched rule ids when content
// contains a secret.
func (s *Scanner) Check(content string) error {
	findings := s.Scan(content)
	if len(findings) == 0 {
		return nil
	}
	rules := make([]string, 0, len(findings))
	seen := make(map[string]bool)
	for _, f := range findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			rules = append(rules, f.RuleID)
		}
	}
	return fmt.Errorf("%w: %s", ErrSecretDetected, strings.Join(rules, ", "))
}
