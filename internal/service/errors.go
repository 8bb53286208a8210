package service

import "errors"

// Common service errors
var (
	// ErrNoSubscribedTopics is returned when a daily word is requested for
	// a user who has not subscribed to any topics yet.
	ErrNoSubscribedTopics = errors.New("user has no subscribed topics")

	// ErrOnboardingIncomplete is returned when a daily word is requested
	// before the user finished onboarding.
	ErrOnboardingIncomplete = errors.New("user has not completed onboarding")

	// ErrNoTopicsSelected is returned when onboarding is submitted without
	// any topic selections.
	ErrNoTopicsSelected = errors.New("at least one topic must be selected")
)
