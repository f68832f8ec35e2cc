// Package artifact persists trained models and prediction tables as dated
// files and finds the newest one by modification time.
package artifact
