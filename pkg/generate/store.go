package generate

import (
	"context"
	"time"

	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/wizard"
)

// Retention is how long a generated package stays downloadable.
const Retention = 7 * 24 * time.Hour

// RuleRepository supplies the rule catalog and its dependency edges.
type RuleRepository interface {
	FetchAllRulesWithCompatibility(ctx context.Context) ([]catalog.Rule, error)
	FetchConflictEdges(ctx context.Context, ids []string) ([]catalog.Dependency, error)
}

// ConfigurationStore persists wizard configurations.
type ConfigurationStore interface {
	InsertConfiguration(ctx context.Context, cfg *wizard.Configuration) (string, error)
}

// PackageStore persists package descriptors.
type PackageStore interface {
	InsertPackage(ctx context.Context, pkg *Package) (*Package, error)
}

// ArtifactStorage uploads artifact bytes and returns a public URL.
type ArtifactStorage interface {
	Upload(ctx context.Context, packageID string, data []byte, format wizard.OutputFormat) (string, error)
}

// Package describes a generated artifact. Only DownloadCount changes after
// creation.
type Package struct {
	CreatedAt       time.Time           `json:"createdAt"`
	ExpiresAt       time.Time           `json:"expiresAt"`
	ID              string              `json:"id"`
	ConfigurationID string              `json:"configurationId"`
	PackageType     wizard.OutputFormat `json:"packageType"`
	// DownloadURL is empty when the upload failed or was disabled.
	DownloadURL   string `json:"downloadUrl,omitempty"`
	FileName      string `json:"fileName"`
	FileSize      int64  `json:"fileSize"`
	RuleCount     int    `json:"ruleCount"`
	DownloadCount int    `json:"downloadCount"`
}

// Expired reports whether the package has expired at now.
func (p *Package) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// FileName returns the artifact file name for a package id and extension.
func FileName(packageID, ext string) string {
	return "rulehub-" + packageID + ext
}
