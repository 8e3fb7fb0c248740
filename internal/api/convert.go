package api

import (
	"scout/internal/changes"
	"scout/internal/folders"
)

// FromDirectory converts a registry record to its API representation.
func FromDirectory(dir *folders.Directory) Folder {
	if dir == nil {
		return Folder{}
	}
	dto := Folder{
		ID:             dir.ID,
		Path:           dir.Path,
		Alias:          dir.Alias,
		AuthStatus:     string(dir.AuthStatus),
		IsBlacklist:    dir.IsBlacklist,
		ParentID:       dir.ParentID,
		IsCommonFolder: dir.IsCommonFolder,
	}
	if !dir.CreatedAt.IsZero() {
		dto.CreatedAt = dir.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !dir.UpdatedAt.IsZero() {
		dto.UpdatedAt = dir.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromDirectories converts a batch of registry records.
func FromDirectories(dirs []*folders.Directory) []Folder {
	if len(dirs) == 0 {
		return nil
	}
	out := make([]Folder, 0, len(dirs))
	for _, dir := range dirs {
		out = append(out, FromDirectory(dir))
	}
	return out
}

// FromHierarchy converts the two-level registry view.
func FromHierarchy(hierarchy *folders.Hierarchy) HierarchyResponse {
	if hierarchy == nil {
		return HierarchyResponse{}
	}
	groups := make([]FolderGroup, 0, len(hierarchy.Entries))
	for _, entry := range hierarchy.Entries {
		groups = append(groups, FolderGroup{
			Folder:    FromDirectory(entry.Folder),
			Blacklist: FromDirectories(entry.Blacklist),
		})
	}
	return HierarchyResponse{Folders: groups}
}

// FromMutation converts an applied change queue result.
func FromMutation(result changes.Result) MutationResponse {
	resp := MutationResponse{Removed: FromDirectories(result.Removed)}
	if result.Directory != nil {
		dto := FromDirectory(result.Directory)
		resp.Folder = &dto
	}
	return resp
}

// FromQueueStatus converts queue diagnostics.
func FromQueueStatus(status changes.Status) QueueStatus {
	return QueueStatus{
		QueueLength: status.QueueLength,
		Processing:  status.Processing,
		LastError:   status.LastError,
	}
}
