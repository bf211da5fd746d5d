package logging

// Standardized field names for structured logging.
const (
	FieldFile       = "file_path"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldDelimiter  = "delimiter"

	FieldRunID      = "run_id"
	FieldBackend    = "backend"
	FieldModel      = "model"
	FieldCaseIndex  = "case_index"
	FieldCaseID     = "case_id"
	FieldCategory   = "category"
	FieldResolution = "resolution"
	FieldCertainty  = "certainty"
	FieldSkipped    = "skipped"
	FieldWorkers    = "workers"
	FieldRow        = "row"
)
