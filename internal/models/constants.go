package models

// DefaultAccount is stored when a row carries no account column.
const DefaultAccount = "Unknown"

// Pattern confidence bounds.
const (
	SeedConfidence    = 1.0
	LearnedConfidence = 0.9
	MinConfidence     = 0.1
	MaxConfidence     = 1.0
	ConfidenceStep    = 0.1
)

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
)
