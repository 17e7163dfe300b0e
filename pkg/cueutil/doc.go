// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE validation utilities.
//
// condalint validates its YAML configuration against an embedded CUE schema.
// This package holds the pieces of that flow that are independent of any
// particular schema: compiling YAML input into a CUE value, formatting CUE
// errors with JSON-path locations, and bounding input size.
package cueutil
