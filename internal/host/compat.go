package host

import (
	"fmt"

	"github.com/DRSN-tech/storefront-shell/pkg/e"
	"golang.org/x/mod/semver"
)

// Compatible проверяет, что контракт версии provided удовлетворяет требованию required:
// совпадает major-версия и provided не старше required.
func Compatible(provided, required string) error {
	if !semver.IsValid(required) {
		return fmt.Errorf("%w: invalid required version %q", e.ErrFragmentIncompatible, required)
	}
	if semver.Major(provided) != semver.Major(required) {
		return fmt.Errorf("%w: host %s, fragment requires %s", e.ErrFragmentIncompatible, provided, required)
	}
	if semver.Compare(provided, required) < 0 {
		return fmt.Errorf("%w: host %s is older than required %s", e.ErrFragmentIncompatible, provided, required)
	}

	return nil
}
