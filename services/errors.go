package services

import (
	"errors"

	"github.com/xh3b4sd/tracer"
)

var invalidMappingError = &tracer.Error{
	Kind: "invalidMappingError",
}

var invalidArtifactError = &tracer.Error{
	Kind: "invalidArtifactError",
}

func IsInvalidMapping(err error) bool {
	return errors.Is(err, invalidMappingError)
}

func IsInvalidArtifact(err error) bool {
	return errors.Is(err, invalidArtifactError)
}
