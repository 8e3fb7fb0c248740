package api

import (
	"context"

	"scout/internal/folders"
)

// FolderReader abstracts registry reads needed for API queries.
type FolderReader interface {
	ListHierarchy(ctx context.Context) (*folders.Hierarchy, error)
	GetByID(ctx context.Context, id string) (*folders.Directory, error)
}

// FolderService exposes read-only registry operations returning API DTOs.
// All writes go through the config change queue instead.
type FolderService struct {
	store FolderReader
}

// NewFolderService constructs a FolderService around the provided reader.
func NewFolderService(store FolderReader) *FolderService {
	if store == nil {
		return nil
	}
	return &FolderService{store: store}
}

// Hierarchy returns the two-level registry view.
func (s *FolderService) Hierarchy(ctx context.Context) (HierarchyResponse, error) {
	if s == nil || s.store == nil {
		return HierarchyResponse{}, nil
	}
	hierarchy, err := s.store.ListHierarchy(ctx)
	if err != nil {
		return HierarchyResponse{}, err
	}
	return FromHierarchy(hierarchy), nil
}

// Describe fetches a single folder.
func (s *FolderService) Describe(ctx context.Context, id string) (*Folder, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	dir, err := s.store.GetByID(ctx, id)
	if err != nil || dir == nil {
		return nil, err
	}
	dto := FromDirectory(dir)
	return &dto, nil
}
