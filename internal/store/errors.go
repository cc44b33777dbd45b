package store

import "errors"

// Domain-level store error sentinels.
var (
	// Rule errors
	ErrRuleNotFound       = errors.New("routing rule not found")
	ErrAlreadyInitialized = errors.New("routing rules already initialized")

	// Tweet errors
	ErrTweetNotFound  = errors.New("tweet not found")
	ErrDuplicateTweet = errors.New("tweet already exists")

	// Response errors
	ErrResponseNotFound = errors.New("tweet response not found")
)
