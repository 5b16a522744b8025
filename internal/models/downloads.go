// Package models holds the data types passed between ytbridge components.
package models

import "ytbridge/internal/domain/consts"

// DownloadRequest is a single call to the download method.
type DownloadRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// DownloadResult is the structured answer to a DownloadRequest.
type DownloadResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Failure returns a failed result carrying msg.
func Failure(msg string) DownloadResult {
	return DownloadResult{Success: false, Message: msg}
}

// FailureFromError maps err to a failed result, using a fixed message when err has no text.
func FailureFromError(err error) DownloadResult {
	if err == nil || err.Error() == "" {
		return Failure(consts.MsgUnknownError)
	}
	return Failure(err.Error())
}
