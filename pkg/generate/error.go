package generate

import (
	"errors"
	"fmt"
)

const (
	StageSaveConfiguration = "failed to save configuration"
	StageFetchRules        = "failed to fetch rules"
	StageSavePackage       = "failed to save package"
	StageEmit              = "failed to render package"
)

// ErrPackageGeneration matches every [*PackageGenerationError] with
// [errors.Is].
var ErrPackageGeneration = errors.New("failed to generate rule package")

// PackageGenerationError is the only error returned by [Generator.Generate].
// Its message names the failed stage; the cause is only available through
// [errors.Unwrap] for server-side logging.
type PackageGenerationError struct {
	Err   error
	Stage string
}

func (e *PackageGenerationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrPackageGeneration, e.Stage)
}

func (e *PackageGenerationError) Unwrap() error {
	return e.Err
}

func (e *PackageGenerationError) Is(target error) bool {
	return target == ErrPackageGeneration
}
