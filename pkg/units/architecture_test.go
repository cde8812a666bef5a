package units_test

import (
	"testing"

	"phasecore/testutil"
)

func TestUnitsImportsNoInfrastructure(t *testing.T) {
	forbidden := testutil.AnyOf(testutil.InternalImportForbidden, testutil.InfraImportForbidden)
	testutil.AssertNoDirectImports(t, ".", forbidden, "units is a leaf package")
	if !testing.Short() {
		testutil.AssertNoTransitiveDependency(t, ".", forbidden, "units is a leaf package")
	}
}
