package persona

import "errors"

// Sentinel errors shared by the extraction and conversation flows.

// ErrValidation indicates malformed or missing required input (bad user id, empty message).
var ErrValidation = errors.New("validation failed")

// ErrAuthorization indicates the requesting user does not own the persona involved.
var ErrAuthorization = errors.New("persona does not belong to the requesting user")

// ErrUpstream indicates the LLM completion call failed.
var ErrUpstream = errors.New("upstream LLM call failed")

// ErrParse indicates the LLM output could not be parsed. It is always recovered locally.
var ErrParse = errors.New("failed to parse LLM output")

// ErrIntegrity indicates a persisted row's owner did not match the request after a write.
var ErrIntegrity = errors.New("persona integrity violation")

// ErrExtraction indicates the persona store could not be reached during extraction.
var ErrExtraction = errors.New("persona extraction failed")
