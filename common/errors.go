package common

import (
	"errors"
)

// Run-fatal error conditions. Anything else the pipeline can degrade around.
var (
	// ErrInvalidConfig is returned when an invalid configuration is provided
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrBrowserLaunch is returned when the browser process cannot be started
	ErrBrowserLaunch = errors.New("browser launch failed")

	// ErrLoginFailed is returned when authentication against the portal fails
	ErrLoginFailed = errors.New("login failed")

	// ErrNoCourses is returned when the dashboard yields no course cards
	ErrNoCourses = errors.New("no course data found")

	// ErrSemesterWidget is returned when the semester dropdown cannot be operated at all
	ErrSemesterWidget = errors.New("could not operate semester dropdown")
)
