package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType is the standardized structured logging key for machine-readable event identifiers.
	FieldEventType = "event_type"
	// FieldFolderID is the standardized structured logging key for directory record identifiers.
	FieldFolderID = "folder_id"
	// FieldRoot is the standardized structured logging key for watched root paths.
	FieldRoot = "root"
	// FieldPath is the standardized structured logging key for filesystem paths.
	FieldPath = "path"
	// FieldRequestKind is the standardized structured logging key for config change request kinds.
	FieldRequestKind = "request_kind"
)
