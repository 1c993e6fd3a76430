package model

import "errors"

var ErrInterviewerNotFound = errors.New("interviewer not found")
