// Package model contains the data structures shared across layers.
// Keep it free of business logic and persistence concerns.
package model
