// Package models provides the data structures used throughout the application.
package models

// ErrorMarker fills the category, resolution and certainty of a prediction
// that could not be obtained.
const ErrorMarker = "Error"

// ErrorReasoning is the reasoning text of a failed prediction.
const ErrorReasoning = "Error during processing."

// Export column names.
const (
	ColumnCaseID       = "CaseID"
	ColumnCaseNumber   = "CaseNumber"
	ColumnCaseTitle    = "CaseTitle"
	ColumnDescription  = "Description"
	ColumnStatusReason = "StatusReason"

	ColumnPredictedCategory   = "PredictedCategory"
	ColumnPredictedResolution = "PredictedResolution"
	ColumnPredictedCertainty  = "PredictedCertainty"
	ColumnPredictedReasoning  = "PredictedReasoning"
	ColumnError               = "Error"
)

// KnownColumns lists the recognized case columns in export order.
var KnownColumns = []string{
	ColumnCaseNumber,
	ColumnCaseTitle,
	ColumnDescription,
	ColumnStatusReason,
}

// PredictionColumns lists the prediction columns in export order, error last.
var PredictionColumns = []string{
	ColumnPredictedCategory,
	ColumnPredictedResolution,
	ColumnPredictedCertainty,
	ColumnPredictedReasoning,
	ColumnError,
}

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionOutputFile = 0644
)
