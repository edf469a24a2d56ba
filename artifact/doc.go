// Package artifact stores files produced or received during an application:
// generated sanction letters and uploaded documents.
//
// The ArtifactStore contract lives in core. Artifacts are addressed by
// session id and artifact id and exposed to callers through locators of the
// form artifact://<session>/<artifact>.
package artifact
