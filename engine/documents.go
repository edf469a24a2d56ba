package engine

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/hupe1980/loanmesh/artifact"
	"github.com/hupe1980/loanmesh/core"
)

// DocumentKind names an uploadable document.
type DocumentKind string

const (
	DocumentSalarySlip DocumentKind = "salary_slip"
	DocumentIDFront    DocumentKind = "id_front"
	DocumentIDBack     DocumentKind = "id_back"
)

// Valid reports whether k is a known kind.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentSalarySlip, DocumentIDFront, DocumentIDBack:
		return true
	}
	return false
}

// Upload is one document attached to a session.
type Upload struct {
	Kind        DocumentKind
	Filename    string
	ContentType string
	Data        []byte
	// MonthlySalary is the net monthly salary read from a salary slip, when
	// the caller knows it.
	MonthlySalary float64
}

// AttachDocument stores the upload as a session artifact and records its
// locator. No cycle runs and the conversation log is untouched; the next
// inbound message lets the orchestrator react to the new document.
func (m *Manager) AttachDocument(ctx context.Context, sessionID string, up Upload) (string, error) {
	if !up.Kind.Valid() {
		return "", fmt.Errorf("%w: unknown kind %q", core.ErrInvalidDocument, up.Kind)
	}
	if len(up.Data) == 0 {
		return "", fmt.Errorf("%w: empty %s", core.ErrInvalidDocument, up.Kind)
	}
	if up.MonthlySalary < 0 {
		return "", fmt.Errorf("%w: negative salary", core.ErrInvalidDocument)
	}

	var locator string
	err := m.update(ctx, sessionID, func(rec *core.Record) error {
		artifactID := string(up.Kind) + "-" + shortID(m.newID()) + extension(up)
		if err := m.artifacts.Save(sessionID, artifactID, up.Data); err != nil {
			return fmt.Errorf("save %s: %w", up.Kind, err)
		}
		locator = artifact.Locator(sessionID, artifactID)

		docs := &rec.Documents
		switch up.Kind {
		case DocumentSalarySlip:
			docs.SalarySlipUploaded = true
			docs.SalarySlipURL = locator
			if up.MonthlySalary > 0 {
				docs.MonthlySalary = up.MonthlySalary
			}
		case DocumentIDFront:
			docs.IDFrontURL = locator
		case DocumentIDBack:
			docs.IDBackURL = locator
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	m.logger.Info("document attached", "session_id", sessionID, "kind", up.Kind, "bytes", len(up.Data))
	return locator, nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func extension(up Upload) string {
	if ext := strings.ToLower(filepath.Ext(up.Filename)); ext != "" && !strings.ContainsAny(ext, "/\\") {
		return ext
	}
	if up.ContentType != "" {
		if exts, err := mime.ExtensionsByType(up.ContentType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return ".bin"
}
