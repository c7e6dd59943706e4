//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "workorder-api"
	ConsumerName = "contractor-dashboard"

	StateWorkOrdersBaseline = "work orders baseline"
	StatePendingOrderExists = "pending work order wo-pact-101 exists"
	StateOrderClaimed       = "work order wo-pact-101 claimed by pact-alice"
	StateOrderMissing       = "no work order wo-pact-404"
)

const (
	ExistingOrderID = "wo-pact-101"
	MissingOrderID  = "wo-pact-404"

	ContractorID      = "pact-carla"
	ClaimingTechID    = "pact-alice"
	LateTechnicianID  = "pact-bob"
	RoleContractor    = "contractor"
	RoleTechnician    = "technician"
	exampleCustomer   = "Jane Pact"
	examplePhone      = "+15550100"
	exampleVehicleMk  = "Honda"
	exampleVehicleMdl = "Civic"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the contractor dashboard consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleIntakePayload is the intake form the contractor dashboard submits.
func ExampleIntakePayload() map[string]any {
	return map[string]any{
		"customer": map[string]any{"name": exampleCustomer, "phone": examplePhone},
		"vehicle":  map[string]any{"make": exampleVehicleMk, "model": exampleVehicleMdl, "year": 2019},
		"activity": map[string]any{"type": "repair", "description": "Front bumper damage"},
	}
}

// ExampleCustomer returns the customer used when seeding provider state.
func ExampleCustomer() (name, phone string) {
	return exampleCustomer, examplePhone
}

// ExampleVehicle returns the vehicle used when seeding provider state.
func ExampleVehicle() (vehicleMake, vehicleModel string) {
	return exampleVehicleMk, exampleVehicleMdl
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
