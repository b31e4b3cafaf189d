package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vibekit/rulehub/pkg/store"
)

// PackageParams identifies a generated package.
type PackageParams struct {
	ID string `json:"id" jsonschema:"the package id returned by generate_package"`
}

// handleGetPackage handles the get_package tool call.
func (s *Server) handleGetPackage(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[PackageParams],
) (*mcp.CallToolResultFor[PackageResult], error) {
	id := strings.TrimSpace(params.Arguments.ID)

	pkg, err := s.packages.GetPackage(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newPackageResult(PackageResult{
			Message: fmt.Sprintf("INVALID INPUT ERROR: Package %q not found.", id),
		}), nil

	case err != nil:
		return nil, fmt.Errorf("get package %q: %w", id, err)
	}

	info := newPackageInfo(pkg, s.now())

	msg := fmt.Sprintf("Found package %s, expires %s.", pkg.ID, info.ExpiresAt)
	if info.Expired {
		msg = fmt.Sprintf("Package %s expired at %s and can no longer be downloaded.", pkg.ID, info.ExpiresAt)
	}

	return newPackageResult(PackageResult{Package: info, Message: msg, Found: true}), nil
}

// handleRecordDownload handles the record_download tool call.
func (s *Server) handleRecordDownload(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[PackageParams],
) (*mcp.CallToolResultFor[PackageResult], error) {
	id := strings.TrimSpace(params.Arguments.ID)
	now := s.now()

	pkg, err := s.packages.RecordDownload(ctx, id, now)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newPackageResult(PackageResult{
			Message: fmt.Sprintf("INVALID INPUT ERROR: Package %q not found.", id),
		}), nil

	case errors.Is(err, store.ErrPackageExpired):
		return newPackageResult(PackageResult{
			Message: fmt.Sprintf("Package %q has expired.", id),
			Found:   true,
		}), nil

	case err != nil:
		return nil, fmt.Errorf("record download %q: %w", id, err)
	}

	return newPackageResult(PackageResult{
		Package: newPackageInfo(pkg, now),
		Message: fmt.Sprintf("Recorded download %d of package %s.", pkg.DownloadCount, pkg.ID),
		Found:   true,
	}), nil
}
