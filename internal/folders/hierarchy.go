package folders

import "context"

// ListHierarchy returns the registry projection: top-level entries in
// creation order, each paired with its direct blacklist children in creation
// order.
func (s *Store) ListHierarchy(ctx context.Context) (*Hierarchy, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	childrenByParent := make(map[string][]*Directory)
	var roots []*Directory
	for _, dir := range all {
		if dir.ParentID == "" {
			roots = append(roots, dir)
			continue
		}
		childrenByParent[dir.ParentID] = append(childrenByParent[dir.ParentID], dir)
	}

	hierarchy := &Hierarchy{Entries: make([]HierarchyEntry, 0, len(roots))}
	for _, root := range roots {
		hierarchy.Entries = append(hierarchy.Entries, HierarchyEntry{
			Folder:    root,
			Blacklist: childrenByParent[root.ID],
		})
	}
	return hierarchy, nil
}
